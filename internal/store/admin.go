package store

import (
	"log"
	"net/http"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"
)

// AttachAdminRoutes mounts a debug SQL surface over the boat_log and
// celestial_sight tables, matching db.go's tailsql/tsweb wiring.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("store: failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://sailnavsim.db", db.DB, &tailsql.DBOptions{
		Label: "SailNavSim DB",
	})

	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
}
