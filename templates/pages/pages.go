// Package pages contains the templ components for the portal's pages.
package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Site holds the values every page needs.
type Site struct {
	Name       string
	ContactURL string
}

// LoginRow is one rendered line of the dashboard's login history table.
type LoginRow struct {
	Email    string
	LoginAt  string
	LogoutAt string // empty while the session is still open
}

func layout(site Site, title string, body func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>%s - %s</title>
	<link rel="stylesheet" href="/static/css/main.css">
</head>
<body class="bg-slate-900 text-slate-100 min-h-screen">
`, templ.EscapeString(title), templ.EscapeString(site.Name)); err != nil {
			return err
		}
		if err := body(w); err != nil {
			return err
		}
		footer := ""
		if site.ContactURL != "" {
			footer = fmt.Sprintf(`	<footer class="text-center text-slate-500 text-sm py-6">
		<a href="%s" class="hover:text-slate-300">Contact us</a>
	</footer>
`, templ.EscapeString(site.ContactURL))
		}
		_, err := fmt.Fprintf(w, "%s</body>\n</html>\n", footer)
		return err
	})
}

// HomePage renders the landing page, greeting the session user if present.
func HomePage(site Site, userEmail string) templ.Component {
	return layout(site, "Home", func(w io.Writer) error {
		greeting := "Welcome, guest."
		if userEmail != "" {
			greeting = fmt.Sprintf("Welcome back, %s.", templ.EscapeString(userEmail))
		}
		_, err := fmt.Fprintf(w, `	<main class="max-w-2xl mx-auto py-16 px-4 text-center">
		<h1 class="text-4xl font-bold mb-4">🎮 %s</h1>
		<p class="text-slate-400 mb-8">%s</p>
		<form method="POST" action="/logout">
			<button type="submit" class="px-4 py-2 bg-slate-700 hover:bg-slate-600 rounded-xl">Logout</button>
		</form>
	</main>
`, templ.EscapeString(site.Name), greeting)
		return err
	})
}

// LoginPage renders the OTP login form.
func LoginPage(site Site, errorMsg string) templ.Component {
	return layout(site, "Login", func(w io.Writer) error {
		if err := writeError(w, errorMsg); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `	<main class="max-w-md mx-auto py-16 px-4">
		<h1 class="text-2xl font-bold mb-6 text-center">Sign in to %s</h1>
		<form method="POST" action="/send-otp" class="mb-8 space-y-4">
			<input type="email" name="email" placeholder="you@example.com" class="w-full px-4 py-3 bg-slate-800 rounded-xl" required>
			<button type="submit" class="w-full py-3 bg-amber-500 hover:bg-amber-400 text-slate-900 font-semibold rounded-xl">Send OTP</button>
		</form>
		<form method="POST" action="/login" class="space-y-4">
			<input type="email" name="email" placeholder="you@example.com" class="w-full px-4 py-3 bg-slate-800 rounded-xl" required>
			<input type="text" name="otp" placeholder="6-digit code" class="w-full px-4 py-3 bg-slate-800 rounded-xl" required>
			<button type="submit" class="w-full py-3 bg-amber-500 hover:bg-amber-400 text-slate-900 font-semibold rounded-xl">Verify &amp; Login</button>
		</form>
	</main>
`, templ.EscapeString(site.Name))
		return err
	})
}

// AdminLoginPage renders the admin password form.
func AdminLoginPage(site Site, errorMsg string) templ.Component {
	return layout(site, "Admin Login", func(w io.Writer) error {
		if err := writeError(w, errorMsg); err != nil {
			return err
		}
		_, err := io.WriteString(w, `	<main class="max-w-md mx-auto py-16 px-4">
		<h1 class="text-2xl font-bold mb-6 text-center">Admin Login</h1>
		<form method="POST" action="/admin-login" class="space-y-4">
			<input type="password" name="password" placeholder="Admin password" class="w-full px-4 py-3 bg-slate-800 rounded-xl" required>
			<button type="submit" class="w-full py-3 bg-rose-500 hover:bg-rose-400 text-slate-900 font-semibold rounded-xl">Enter</button>
		</form>
	</main>
`)
		return err
	})
}

// DashboardPage renders the login history table, newest first.
func DashboardPage(site Site, rows []LoginRow) templ.Component {
	return layout(site, "Dashboard", func(w io.Writer) error {
		if _, err := io.WriteString(w, `	<main class="max-w-3xl mx-auto py-16 px-4">
		<h1 class="text-2xl font-bold mb-6">Login History</h1>
		<table class="w-full text-left">
			<thead>
				<tr class="text-slate-400 border-b border-slate-700">
					<th class="py-2">Email</th><th class="py-2">Login</th><th class="py-2">Logout</th>
				</tr>
			</thead>
			<tbody>
`); err != nil {
			return err
		}
		for _, row := range rows {
			logout := row.LogoutAt
			if logout == "" {
				logout = "—"
			}
			if _, err := fmt.Fprintf(w, "\t\t\t\t<tr class=\"border-b border-slate-800\"><td class=\"py-2\">%s</td><td class=\"py-2\">%s</td><td class=\"py-2\">%s</td></tr>\n",
				templ.EscapeString(row.Email),
				templ.EscapeString(row.LoginAt),
				templ.EscapeString(logout),
			); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `			</tbody>
		</table>
	</main>
`)
		return err
	})
}

func writeError(w io.Writer, errorMsg string) error {
	if errorMsg == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, `	<div class="max-w-md mx-auto mt-6 px-4 py-3 bg-rose-500/20 text-rose-300 rounded-xl text-center">%s</div>
`, templ.EscapeString(errorMsg))
	return err
}
