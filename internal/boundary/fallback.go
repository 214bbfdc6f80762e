package boundary

import (
	"html/template"
	"io"
)

// ReloadPath is where the fallback's reload button posts to.
const ReloadPath = "/reload"

var fallbackTmpl = template.Must(template.New("fallback").Parse(`<section class="boundary-fallback" role="alert">
  <h1 class="boundary-title">Something went wrong</h1>
  <div class="card boundary-card">
    <p class="boundary-message">{{.Message}}</p>
    <p class="muted">Check the server logs for more details.</p>
  </div>
  <form method="post" action="{{.ReloadPath}}">
    <button type="submit" class="btn btn-primary">Reload Page</button>
  </form>
</section>
`))

// DefaultFallback writes the error message and a reload button.
func DefaultFallback(w io.Writer, f Fault) error {
	return fallbackTmpl.Execute(w, struct {
		Message    string
		ReloadPath string
	}{Message: f.Message(), ReloadPath: ReloadPath})
}
