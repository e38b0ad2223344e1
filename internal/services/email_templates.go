package services

// Both templates take: heading, body HTML, org name, year.
const claimReceivedEmailHTML = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #111827; background-color: #f0fdf4; margin: 0; padding: 20px; }
.container { padding: 20px; max-width: 600px; margin: 20px auto; background-color: #ffffff; border: 1px solid #bbf7d0; border-radius: 8px; }
.header { font-size: 22px; font-weight: bold; color: #15803d; margin-bottom: 12px; }
.content { padding: 24px; }
.footer { margin-top: 20px; font-size: 12px; color: #6b7280; text-align: center; }
p { margin-bottom: 1em; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      © %s %d. All rights reserved.
    </div>
  </div>
</body>
</html>`

const operatorAlertEmailHTML = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #111827; background-color: #f9fafb; margin: 0; padding: 20px; }
.container { padding: 20px; max-width: 600px; margin: 20px auto; background-color: #ffffff; border: 1px solid #e5e7eb; border-radius: 8px; }
.header { font-size: 20px; font-weight: bold; color: #b45309; margin-bottom: 12px; }
.content { padding: 20px; }
.footer { margin-top: 20px; font-size: 12px; color: #6b7280; text-align: center; }
ul { list-style: none; padding: 0; }
li { margin-bottom: 8px; }
strong { color: #000; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h2>%s</h2>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      © %s %d
    </div>
  </div>
</body>
</html>`
