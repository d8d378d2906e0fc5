package app

import (
	"html/template"
	"net/http"

	"storefront-go/internal/customer"
)

type loginPageData struct {
	ErrorMessage string
}

type accountPageData struct {
	Customer *customer.Customer
	Orders   []customer.Order
}

// loginErrorMessage maps the bounded error codes carried in the login
// redirect to human messages. Unknown provider codes get a generic line;
// raw detail never reaches the page.
func loginErrorMessage(code string) string {
	switch code {
	case "":
		return ""
	case "auth_failed":
		return "Authentication failed. Please try again."
	case "access_denied":
		return "You declined the sign-in request. Sign in again when you are ready."
	default:
		return "Sign-in could not be completed. Please try again."
	}
}

func (a *Application) renderPage(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		a.Logger.Error().Err(err).Str("template", tmpl.Name()).Msg("failed to render page")
	}
}

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Sign in</title>
</head>
<body>
  <main>
    <h1>Sign in to your account</h1>
    <p>Access your order history and manage your account.</p>
    {{if .ErrorMessage}}
    <div role="alert">
      <strong>Authentication error</strong>
      <p>{{.ErrorMessage}}</p>
    </div>
    {{end}}
    <a href="/api/auth/callback">Sign in</a>
  </main>
</body>
</html>
`))

var accountTemplate = template.Must(template.New("account").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>My Account</title>
</head>
<body>
  <main>
    <h1>My Account</h1>
    <form method="post" action="/api/auth/logout">
      <button type="submit">Sign out</button>
    </form>

    <section>
      <h2>Account information</h2>
      <p>Email: {{.Customer.Email}}</p>
      {{if .Customer.FirstName}}
      <p>Name: {{.Customer.FirstName}} {{.Customer.LastName}}</p>
      {{end}}
    </section>

    <section>
      <h2>Order history</h2>
      {{if not .Orders}}
      <p>You haven't placed any orders yet.</p>
      {{else}}
      <ul>
        {{range .Orders}}
        <li>
          <h3>{{.Name}}</h3>
          <p>Placed {{.ProcessedAt}} &middot; {{.TotalPrice.Amount}} {{.TotalPrice.CurrencyCode}} &middot; {{.FulfillmentStatus}}</p>
          <ul>
            {{range .LineItems}}
            <li>
              {{if .Image}}<img src="{{.Image.URL}}" alt="{{.Image.AltText}}" width="48">{{end}}
              {{.Title}} × {{.Quantity}}
            </li>
            {{end}}
          </ul>
        </li>
        {{end}}
      </ul>
      {{end}}
    </section>
  </main>
</body>
</html>
`))
