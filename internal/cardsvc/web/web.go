// Package web serves the static admin pages. They talk to the JSON API only;
// no card data is rendered server side.
package web

import (
	"embed"
	"net/http"

	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"
)

//go:embed static/*.html
var static embed.FS

func SetRoutes(r chi.Router) {
	r.Get("/admin", page("static/admin.html"))
	r.Get("/admin.html", page("static/admin.html"))
	r.Get("/admin-login", page("static/login.html"))
}

func page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := static.ReadFile(name)
		if err != nil {
			log.Errorf("Error reading %s: %s", name, err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html;charset=UTF-8")
		w.Write(body)
	}
}
