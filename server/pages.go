package server

import (
	"html/template"
	"net/http"

	"github.com/andre-2112/cloud-cli-access/token"
)

// The approval endpoints answer a human clicking a link in email, so they
// return small self-contained HTML pages rather than JSON.

const pageShell = `<!DOCTYPE html>
<html>
<head>
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; text-align: center; }
h1 { color: {{.Color}}; }
.info { background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0; text-align: left; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .User.Username}}<div class="info">
<p><strong>Username:</strong> {{.User.Username}}</p>
<p><strong>Email:</strong> {{.User.Email}}</p>
{{if .ShowName}}<p><strong>Name:</strong> {{.User.DisplayName}}</p>{{end}}
</div>{{end}}
{{range .Lines}}<p>{{.}}</p>
{{end}}
</body>
</html>
`

var pageTmpl = template.Must(template.New("page").Parse(pageShell))

type page struct {
	Title    string
	Color    string
	ShowName bool
	Lines    []string
}

var (
	pageApproved = page{
		Title:    "Registration Approved",
		Color:    "#28a745",
		ShowName: true,
		Lines: []string{
			"User has been created successfully.",
			"They will receive an email to set their password.",
		},
	}
	pageUserExists = page{
		Title: "User Already Exists",
		Color: "#28a745",
		Lines: []string{
			"This user was already created. Repeated clicks on the same approval link are safe.",
		},
	}
	pageDenied = page{
		Title: "Registration Denied",
		Color: "#dc3545",
		Lines: []string{
			"Registration request has been denied.",
		},
	}
)

type pageData struct {
	page
	User token.Payload
}

func (s *Server) render(w http.ResponseWriter, status int, p page, user token.Payload) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, pageData{page: p, User: user}); err != nil {
		s.log.Printf("render page %q: %v", p.Title, err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, status int, message string) {
	s.render(w, status, page{Title: "Error", Color: "#dc3545", Lines: []string{message}}, token.Payload{})
}
