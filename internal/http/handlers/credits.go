package handlers

import "net/http"

func (a *App) CreditsBalance(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]int{"balance": a.Orchestrator.Ledger().Balance()})
}

// CreditsResync pulls the authoritative balance from the platform. Local
// optimistic debits and refunds are overwritten by whatever the server says.
func (a *App) CreditsResync(w http.ResponseWriter, r *http.Request) {
	a.Orchestrator.ResyncBalance(r.Context())
	a.json(w, http.StatusOK, map[string]int{"balance": a.Orchestrator.Ledger().Balance()})
}
