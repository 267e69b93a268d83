package server

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>House Price Estimator</title>
  <style>
    body { font-family: sans-serif; max-width: 480px; margin: 3rem auto; color: #222; }
    label { display: block; margin-top: 1rem; font-weight: bold; }
    input, select { width: 100%; padding: 0.4rem; margin-top: 0.25rem; box-sizing: border-box; }
    button { margin-top: 1.5rem; padding: 0.6rem 1.4rem; font-size: 1rem; cursor: pointer; }
    .model { color: #777; font-size: 0.85rem; margin-top: 2rem; }
  </style>
</head>
<body>
  <h1>House Price Estimator</h1>
  <form method="post" action="/predict">
    <label for="location">Location (postcode district)</label>
    <input id="location" name="location" placeholder="e.g. SW1" required>

    <label for="property_type">Property type</label>
    <select id="property_type" name="property_type">
      <option value="detached">Detached</option>
      <option value="semi_detached">Semi-detached</option>
      <option value="terraced">Terraced</option>
      <option value="flats">Flat</option>
      <option value="bungalow">Bungalow</option>
      <option value="park_home">Park home</option>
      <option value="farms_land">Farm / land</option>
    </select>

    <label for="bedrooms">Bedrooms</label>
    <input id="bedrooms" name="bedrooms" type="number" min="0" required>

    <label for="bathrooms">Bathrooms</label>
    <input id="bathrooms" name="bathrooms" type="number" min="0" required>

    <label for="receptions">Receptions</label>
    <input id="receptions" name="receptions" type="number" min="0" value="1">

    <label for="floor_area">Floor area (sq ft)</label>
    <input id="floor_area" name="floor_area" type="number" min="1" step="any" required>

    <button type="submit">Estimate price</button>
  </form>
  <p class="model">Model: {{.Model}}</p>
</body>
</html>
`

const resultHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Price Estimate</title>
  <style>
    body { font-family: sans-serif; max-width: 480px; margin: 3rem auto; color: #222; }
    .price { font-size: 2.2rem; font-weight: bold; color: #1a7f37; }
    .caveat { background: #fff3cd; border: 1px solid #ffe69c; padding: 0.8rem; margin-top: 1rem; }
    a { display: inline-block; margin-top: 2rem; }
  </style>
</head>
<body>
  <h1>Estimated price</h1>
  <p>{{.PropertyType}} in {{.Location}}</p>
  <p class="price">{{.Price}}</p>
  {{if .LowConfidence}}
  <div class="caveat">
    ⚠ This location or property type was not seen during training.
    The estimate uses a fallback category and should be treated as low confidence.
  </div>
  {{end}}
  <a href="/">← New estimate</a>
</body>
</html>
`
