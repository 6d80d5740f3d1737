package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/domain/ports/adapter"
	"oraclia-chat-platform/internal/domain/ports/repository"
	"oraclia-chat-platform/internal/usecase"

	"github.com/go-chi/chi/v5"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeDomainError maps the domain sentinels to HTTP statuses. Unknown
// errors are reported as 500 without leaking their text.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid argument")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrInsufficientBalance):
		writeError(w, http.StatusPaymentRequired, "insufficient minute balance")
	case errors.Is(err, domain.ErrSessionClosed):
		writeError(w, http.StatusConflict, "session is closed")
	case errors.Is(err, domain.ErrActiveSessionExists):
		writeError(w, http.StatusConflict, "an active session already exists")
	case errors.Is(err, domain.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, domain.ErrUnsupportedCapability):
		writeError(w, http.StatusNotImplemented, "capability not supported")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

type messageView struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func toMessageView(m *model.Message) messageView {
	return messageView{ID: m.ID, Sender: string(m.Sender), Text: m.Text, Timestamp: m.Timestamp}
}

type conversationView struct {
	ID              string        `json:"id"`
	ClientID        string        `json:"client_id"`
	ClientUsername  string        `json:"client_username"`
	PsychicID       string        `json:"psychic_id"`
	PsychicName     string        `json:"psychic_name"`
	Messages        []messageView `json:"messages,omitempty"`
	LastMessage     *messageView  `json:"last_message,omitempty"`
	UnreadForClient bool          `json:"unread_for_client"`
	UnreadForAgent  bool          `json:"unread_for_agent"`
}

func toConversationView(c *model.Conversation, withMessages bool) conversationView {
	v := conversationView{
		ID:              c.ID,
		ClientID:        c.ClientID,
		ClientUsername:  c.ClientUsername,
		PsychicID:       c.PsychicID,
		PsychicName:     c.PsychicName,
		UnreadForClient: c.UnreadForClient,
		UnreadForAgent:  c.UnreadForAgent,
	}
	if withMessages {
		v.Messages = make([]messageView, 0, len(c.Messages))
		for i := range c.Messages {
			v.Messages = append(v.Messages, toMessageView(&c.Messages[i]))
		}
	}
	if last := c.LastMessage(); last != nil {
		lv := toMessageView(last)
		v.LastMessage = &lv
	}
	return v
}

type adminConversationView struct {
	ID             string        `json:"id"`
	RecipientID    string        `json:"recipient_id"`
	RecipientName  string        `json:"recipient_name"`
	Messages       []messageView `json:"messages,omitempty"`
	UnreadForAgent bool          `json:"unread_for_agent"`
	UnreadForAdmin bool          `json:"unread_for_admin"`
}

func toAdminConversationView(c *model.AdminConversation, withMessages bool) adminConversationView {
	v := adminConversationView{
		ID:             c.ID,
		RecipientID:    c.RecipientID,
		RecipientName:  c.RecipientName,
		UnreadForAgent: c.UnreadForAgent,
		UnreadForAdmin: c.UnreadForAdmin,
	}
	if withMessages {
		v.Messages = make([]messageView, 0, len(c.Messages))
		for i := range c.Messages {
			v.Messages = append(v.Messages, toMessageView(&c.Messages[i]))
		}
	}
	return v
}

type sessionView struct {
	ID               string `json:"id"`
	ConversationID   string `json:"conversation_id"`
	ClientID         string `json:"client_id"`
	PsychicID        string `json:"psychic_id"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

type usageView struct {
	FreeMinutesUsed int `json:"free_minutes_used"`
	PaidMinutesUsed int `json:"paid_minutes_used"`
}

type balanceView struct {
	FreeMinutes int `json:"free_minutes"`
	PaidMinutes int `json:"paid_minutes"`
}

// loginHandler resolves the credential to a role and mints a session token.
// Identity assertion is delegated to the front-door proxy; this endpoint
// only verifies the account exists.
func loginHandler(users repository.UserRepository, agents repository.AgentRepository, auth *AuthManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		role, err := resolveRole(r, users, agents, req.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		token, err := auth.Mint(w, req.UserID, role)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token, "role": string(role)})
	}
}

func resolveRole(r *http.Request, users repository.UserRepository, agents repository.AgentRepository, userID string) (model.Role, error) {
	if userID == "" {
		return "", domain.ErrInvalidArgument
	}
	if u, err := users.FindByID(r.Context(), nil, userID); err == nil {
		return u.Role, nil
	}
	if _, err := agents.FindByID(r.Context(), nil, userID); err == nil {
		return model.RoleAgent, nil
	}
	return "", domain.ErrNotFound
}

func logoutHandler(auth *AuthManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func startSessionHandler(sessions usecase.SessionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		var req struct {
			PsychicID string `json:"psychic_id"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		s, err := sessions.StartSession(r.Context(), claims.UserID(), req.PsychicID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		remaining, _ := sessions.RemainingSeconds(s.ID)
		writeJSON(w, http.StatusCreated, sessionView{
			ID:               s.ID,
			ConversationID:   s.ConversationID,
			ClientID:         s.ClientID,
			PsychicID:        s.PsychicID,
			RemainingSeconds: remaining,
		})
	}
}

func closeSessionHandler(sessions usecase.SessionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		split, err := sessions.CloseSession(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, usageView{
			FreeMinutesUsed: split.FreeMinutesUsed,
			PaidMinutesUsed: split.PaidMinutesUsed,
		})
	}
}

func sessionRemainingHandler(sessions usecase.SessionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remaining, err := sessions.RemainingSeconds(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"remaining_seconds": remaining})
	}
}

func getConversationHandler(chat usecase.ChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv, err := chat.GetConversation(r.Context(), chi.URLParam(r, "conversationID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		claims, _ := ClaimsFrom(r.Context())
		if claims.Role == model.RoleClient && conv.ClientID != claims.UserID() {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		writeJSON(w, http.StatusOK, toConversationView(conv, true))
	}
}

func sendMessageHandler(chat usecase.ChatUseCase, limiter *messageThrottle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		var req struct {
			Text string `json:"text"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		if limiter != nil {
			ok, err := limiter.allow(r.Context(), claims.UserID())
			if err == nil && !ok {
				writeError(w, http.StatusTooManyRequests, "message rate exceeded")
				return
			}
		}
		sender := model.RoleClient
		if claims.Role == model.RoleAgent {
			sender = model.RoleAgent
		}
		msg, err := chat.SendMessage(r.Context(), chi.URLParam(r, "conversationID"), sender, req.Text)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMessageView(msg))
	}
}

func markReadHandler(chat usecase.ChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		viewer := model.RoleClient
		if claims.Role == model.RoleAgent {
			viewer = model.RoleAgent
		}
		if err := chat.MarkConversationRead(r.Context(), chi.URLParam(r, "conversationID"), viewer); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func clientConversationsHandler(chat usecase.ChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		clientID := chi.URLParam(r, "clientID")
		if !allowSelf(claims, clientID) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		convs, err := chat.ListForClient(r.Context(), clientID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		views := make([]conversationView, 0, len(convs))
		for _, c := range convs {
			views = append(views, toConversationView(c, false))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func agentConversationsHandler(chat usecase.ChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		agentID := chi.URLParam(r, "agentID")
		if !allowSelf(claims, agentID) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		convs, err := chat.ListForAgent(r.Context(), agentID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		views := make([]conversationView, 0, len(convs))
		for _, c := range convs {
			views = append(views, toConversationView(c, false))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func setPresenceHandler(presence usecase.PresenceUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		var req struct {
			ConversationID string `json:"conversation_id"`
			Foreground     bool   `json:"foreground"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		presence.SetViewport(claims.UserID(), req.ConversationID, req.Foreground)
		w.WriteHeader(http.StatusNoContent)
	}
}

func clearPresenceHandler(presence usecase.PresenceUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		presence.ClearViewport(claims.UserID())
		w.WriteHeader(http.StatusNoContent)
	}
}

func listPacksHandler(purchases usecase.PurchaseUseCase) http.HandlerFunc {
	type packView struct {
		ID      int   `json:"id"`
		Minutes int   `json:"minutes"`
		Price   int64 `json:"price_cents"`
		Popular bool  `json:"popular"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		packs, err := purchases.ListPacks(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		views := make([]packView, 0, len(packs))
		for _, p := range packs {
			views = append(views, packView{ID: p.ID, Minutes: p.Minutes, Price: p.Price, Popular: p.Popular})
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func purchaseHandler(purchases usecase.PurchaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		clientID := chi.URLParam(r, "clientID")
		if !allowSelf(claims, clientID) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		var req struct {
			PackID int `json:"pack_id"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		free, paid, err := purchases.Purchase(r.Context(), clientID, req.PackID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, balanceView{FreeMinutes: free, PaidMinutes: paid})
	}
}

func paymentHistoryHandler(purchases usecase.PurchaseUseCase) http.HandlerFunc {
	type paymentView struct {
		ID          string    `json:"id"`
		PackID      int       `json:"pack_id"`
		Minutes     int       `json:"minutes"`
		Amount      int64     `json:"amount_cents"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		clientID := chi.URLParam(r, "clientID")
		if !allowSelf(claims, clientID) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		records, err := purchases.History(r.Context(), clientID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		views := make([]paymentView, 0, len(records))
		for _, p := range records {
			views = append(views, paymentView{
				ID: p.ID, PackID: p.PackID, Minutes: p.Minutes,
				Amount: p.Amount, Description: p.Description, CreatedAt: p.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func balanceHandler(ledger usecase.LedgerUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		clientID := chi.URLParam(r, "clientID")
		if !allowSelf(claims, clientID) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		free, paid, err := ledger.Balances(r.Context(), clientID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, balanceView{FreeMinutes: free, PaidMinutes: paid})
	}
}

type psychicView struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Specialty    string  `json:"specialty"`
	Description  string  `json:"description"`
	ImageURL     string  `json:"image_url"`
	Rating       float64 `json:"rating"`
	ReviewsCount int     `json:"reviews_count"`
	IsOnline     bool    `json:"is_online"`
}

func toPsychicView(p *model.PsychicProfile) psychicView {
	return psychicView{
		ID: p.ID, Name: p.Name, Specialty: p.Specialty, Description: p.Description,
		ImageURL: p.ImageURL, Rating: p.Rating, ReviewsCount: p.ReviewsCount, IsOnline: p.IsOnline,
	}
}

func listPsychicsHandler(profiles usecase.ProfileUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		psychics, err := profiles.ListPsychics(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		views := make([]psychicView, 0, len(psychics))
		for _, p := range psychics {
			views = append(views, toPsychicView(p))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func getPsychicHandler(profiles usecase.ProfileUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := profiles.GetPsychic(r.Context(), chi.URLParam(r, "psychicID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPsychicView(p))
	}
}

func toggleFavoriteHandler(profiles usecase.ProfileUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		clientID := chi.URLParam(r, "clientID")
		if !allowSelf(claims, clientID) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		favorite, err := profiles.ToggleFavorite(r.Context(), clientID, chi.URLParam(r, "psychicID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"favorite": favorite})
	}
}

func listFavoritesHandler(profiles usecase.ProfileUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		clientID := chi.URLParam(r, "clientID")
		if !allowSelf(claims, clientID) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		psychics, err := profiles.ListFavorites(r.Context(), clientID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		views := make([]psychicView, 0, len(psychics))
		for _, p := range psychics {
			views = append(views, toPsychicView(p))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func addReviewHandler(profiles usecase.ProfileUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		var req struct {
			Rating int    `json:"rating"`
			Text   string `json:"text"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		review, err := profiles.AddReview(r.Context(), claims.UserID(), req.Rating, req.Text, chi.URLParam(r, "psychicID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": review.ID})
	}
}

func listReviewsHandler(profiles usecase.ProfileUseCase) http.HandlerFunc {
	type reviewView struct {
		ID     string    `json:"id"`
		Author string    `json:"author"`
		Rating int       `json:"rating"`
		Text   string    `json:"text"`
		Date   time.Time `json:"date"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		reviews, err := profiles.ListReviews(r.Context(), chi.URLParam(r, "psychicID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		views := make([]reviewView, 0, len(reviews))
		for _, rv := range reviews {
			views = append(views, reviewView{ID: rv.ID, Author: rv.Author, Rating: rv.Rating, Text: rv.Text, Date: rv.Date})
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func adminSendHandler(admin usecase.AdminChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RecipientID string `json:"recipient_id"`
			Text        string `json:"text"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		msg, err := admin.SendAdminMessage(r.Context(), req.RecipientID, req.Text)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMessageView(msg))
	}
}

func agentReplyHandler(admin usecase.AdminChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		var req struct {
			Text string `json:"text"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		msg, err := admin.SendAgentReply(r.Context(), claims.UserID(), chi.URLParam(r, "conversationID"), req.Text)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMessageView(msg))
	}
}

func adminConversationsHandler(admin usecase.AdminChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		convs, err := admin.ListAll(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		views := make([]adminConversationView, 0, len(convs))
		for _, c := range convs {
			views = append(views, toAdminConversationView(c, true))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func agentAdminConversationsHandler(admin usecase.AdminChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		agentID := chi.URLParam(r, "agentID")
		if !allowSelf(claims, agentID) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		convs, err := admin.ListForAgent(r.Context(), agentID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		views := make([]adminConversationView, 0, len(convs))
		for _, c := range convs {
			views = append(views, toAdminConversationView(c, true))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func adminMarkReadHandler(admin usecase.AdminChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		viewer := model.RoleAgent
		if claims.Role == model.RoleAdmin {
			viewer = model.RoleAdmin
		}
		if err := admin.MarkRead(r.Context(), chi.URLParam(r, "conversationID"), viewer); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// grantMinutesHandler credits free minutes to a client, a back-office
// goodwill action.
func grantMinutesHandler(ledger usecase.LedgerUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := chi.URLParam(r, "clientID")
		var req struct {
			Minutes int `json:"minutes"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		if err := ledger.CreditFreeGrant(r.Context(), clientID, req.Minutes); err != nil {
			writeDomainError(w, err)
			return
		}
		free, paid, err := ledger.Balances(r.Context(), clientID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, balanceView{FreeMinutes: free, PaidMinutes: paid})
	}
}

// capabilitiesHandler tells front ends which optional input channels this
// deployment supports, so they can hide the matching controls.
func capabilitiesHandler(speech adapter.SpeechRecognizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"speech": speech.Supported()})
	}
}

func dashboardHandler(stats usecase.StatsUseCase) http.HandlerFunc {
	type dashboardView struct {
		ClientCount    int    `json:"client_count"`
		AgentCount     int    `json:"agent_count"`
		ActiveSessions int    `json:"active_sessions"`
		Revenue        int64  `json:"revenue_cents"`
		Period         string `json:"period"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		period := r.URL.Query().Get("period")
		if period == "" {
			period = "month"
		}
		d, err := stats.Dashboard(r.Context(), period)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dashboardView{
			ClientCount:    d.ClientCount,
			AgentCount:     d.AgentCount,
			ActiveSessions: d.ActiveSessions,
			Revenue:        d.Revenue,
			Period:         period,
		})
	}
}

func agentActivityHandler(stats usecase.StatsUseCase) http.HandlerFunc {
	type activityView struct {
		AgentID     string `json:"agent_id"`
		FreeMinutes int    `json:"free_minutes"`
		PaidMinutes int    `json:"paid_minutes"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := stats.AgentActivity(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		views := make([]activityView, 0, len(all))
		for _, a := range all {
			views = append(views, activityView{AgentID: a.AgentID, FreeMinutes: a.FreeMinutes, PaidMinutes: a.PaidMinutes})
		}
		writeJSON(w, http.StatusOK, views)
	}
}
