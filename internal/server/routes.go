package server

import (
	"context"
	"net/http"

	"activation/internal/services"
)

func (s *Server) routes() []route {
	admin := []string{services.ScopeAdmin}
	super := []string{services.ScopeSuper}

	return []route{
		// Public
		{method: "GET", pattern: "/health", fn: s.health},
		{method: "POST", pattern: "/api/v1/leads", status: http.StatusCreated, limited: true, fn: s.createLead},
		{method: "GET", pattern: "/api/v1/leads/lookup", limited: true, fn: s.lookupLead},
		{method: "PATCH", pattern: "/api/v1/leads/{id}/play", limited: true, fn: s.updatePlay},
		{method: "GET", pattern: "/api/v1/share/{id}", fn: s.publicInfo},
		{method: "POST", pattern: "/api/v1/auth/login", fn: s.login},

		// Recording stations
		{method: "GET", pattern: "/api/v1/lead", auth: authAPIKey, fn: s.deviceFindLead},
		{method: "POST", pattern: "/api/v1/lead", auth: authAPIKey, fn: s.deviceSaveRecording},
		{method: "GET", pattern: "/api/v1/lead/search", auth: authAPIKey, fn: s.deviceSearch},
		{method: "POST", pattern: "/api/v1/lead-file", auth: authAPIKey, status: http.StatusCreated, fn: s.deviceCreateLeadFile},

		// Dashboard
		{method: "GET", pattern: "/api/v1/auth/me", auth: authJWT, fn: s.me},
		{method: "GET", pattern: "/api/v1/leads", auth: authJWT, fn: s.listLeads},
		{method: "GET", pattern: "/api/v1/lead-files", auth: authJWT, fn: s.listFiles},
		{method: "DELETE", pattern: "/api/v1/lead-files/{id}", auth: authJWT, status: http.StatusNoContent, fn: s.deleteFile},
		{method: "GET", pattern: "/api/v1/moderation/queue", auth: authJWT, fn: s.moderationQueue},
		{method: "POST", pattern: "/api/v1/moderation/{id}", auth: authJWT, fn: s.moderate},
		{method: "POST", pattern: "/api/v1/moderation/{id}/sms", auth: authJWT, fn: s.forceSend},
		{method: "GET", pattern: "/api/v1/moderation/{id}/video", auth: authJWT, fn: s.videoURL},
		{method: "GET", pattern: "/api/v1/stats/leads-per-day", auth: authJWT, fn: s.leadsPerDay},
		{method: "GET", pattern: "/api/v1/stats/lead-files-per-day", auth: authJWT, fn: s.leadFilesPerDay},
		{method: "GET", pattern: "/api/v1/stats/play-counts-per-day", auth: authJWT, fn: s.playCountsPerDay},
		{method: "GET", pattern: "/api/v1/stats/leads-by-file-count", auth: authJWT, fn: s.leadsByFileCount},

		{method: "GET", pattern: "/api/v1/users", auth: authJWT, scopes: admin, fn: s.listUsers},
		{method: "POST", pattern: "/api/v1/users", auth: authJWT, scopes: admin, status: http.StatusCreated, fn: s.createUser},
		{method: "PATCH", pattern: "/api/v1/users/{id}", auth: authJWT, scopes: admin, fn: s.updateUser},
		{method: "DELETE", pattern: "/api/v1/users/{id}", auth: authJWT, scopes: admin, status: http.StatusNoContent, fn: s.deleteUser},

		{method: "POST", pattern: "/api/v1/utility/database-download", auth: authJWT, scopes: super, fn: s.downloadDatabase},
	}
}

func (s *Server) health(ctx context.Context, _ *request) (any, error) {
	return s.svc.Health.Check(ctx), nil
}

func (s *Server) createLead(ctx context.Context, req *request) (any, error) {
	var in services.CreateLeadInput
	if err := req.decode(&in); err != nil {
		return nil, err
	}
	return s.svc.Leads.CreateLead(ctx, &in)
}

func (s *Server) lookupLead(ctx context.Context, req *request) (any, error) {
	return s.svc.Leads.LookupByPhone(ctx, req.query("phone"))
}

func (s *Server) updatePlay(ctx context.Context, req *request) (any, error) {
	var body struct {
		Play *int `json:"play"`
	}
	if err := req.decode(&body); err != nil {
		return nil, err
	}
	if body.Play == nil {
		return nil, services.NewBadRequestError("Play is required")
	}
	return s.svc.Leads.UpdatePlaySelection(ctx, req.param("id"), *body.Play)
}

func (s *Server) publicInfo(ctx context.Context, req *request) (any, error) {
	return s.svc.Moderation.GetPublicInfo(ctx, req.param("id"))
}

func (s *Server) login(ctx context.Context, req *request) (any, error) {
	var in services.LoginInput
	if err := req.decode(&in); err != nil {
		return nil, err
	}
	return s.svc.Auth.Login(ctx, &in)
}

func (s *Server) deviceFindLead(ctx context.Context, req *request) (any, error) {
	return s.svc.Devices.FindByPhone(ctx, req.query("phoneNumber"))
}

func (s *Server) deviceSaveRecording(ctx context.Context, req *request) (any, error) {
	var in services.SaveRecordingInput
	if err := req.decode(&in); err != nil {
		return nil, err
	}
	return s.svc.Devices.SaveRecording(ctx, &in)
}

func (s *Server) deviceSearch(ctx context.Context, req *request) (any, error) {
	return s.svc.Devices.Search(ctx, req.query("q"))
}

func (s *Server) deviceCreateLeadFile(ctx context.Context, req *request) (any, error) {
	var in services.CreateLeadFileInput
	if err := req.decode(&in); err != nil {
		return nil, err
	}
	return s.svc.Devices.CreateLeadFile(ctx, &in)
}

func (s *Server) me(ctx context.Context, req *request) (any, error) {
	return s.svc.Auth.Me(ctx, req.caller)
}

func (s *Server) listLeads(ctx context.Context, req *request) (any, error) {
	return s.svc.Leads.ListLeads(ctx, req.caller)
}

func (s *Server) listFiles(ctx context.Context, req *request) (any, error) {
	return s.svc.Leads.ListFiles(ctx, req.caller)
}

func (s *Server) deleteFile(ctx context.Context, req *request) (any, error) {
	return nil, s.svc.Leads.DeleteFile(ctx, req.caller, req.param("id"))
}

func (s *Server) moderationQueue(ctx context.Context, req *request) (any, error) {
	return s.svc.Moderation.ListQueue(ctx, req.caller, req.query("status"))
}

func (s *Server) moderate(ctx context.Context, req *request) (any, error) {
	var in services.ModerateInput
	if err := req.decode(&in); err != nil {
		return nil, err
	}
	return s.svc.Moderation.Moderate(ctx, req.caller, req.param("id"), &in)
}

func (s *Server) forceSend(ctx context.Context, req *request) (any, error) {
	return s.svc.Moderation.ForceSend(ctx, req.caller, req.param("id"))
}

func (s *Server) videoURL(ctx context.Context, req *request) (any, error) {
	return s.svc.Moderation.VideoURL(ctx, req.caller, req.param("id"))
}

func (s *Server) leadsPerDay(ctx context.Context, req *request) (any, error) {
	return s.svc.Stats.LeadsPerDay(ctx, req.caller)
}

func (s *Server) leadFilesPerDay(ctx context.Context, req *request) (any, error) {
	return s.svc.Stats.LeadFilesPerDay(ctx, req.caller)
}

func (s *Server) playCountsPerDay(ctx context.Context, req *request) (any, error) {
	return s.svc.Stats.PlayCountsPerDay(ctx, req.caller)
}

func (s *Server) leadsByFileCount(ctx context.Context, req *request) (any, error) {
	return s.svc.Stats.LeadsGroupedByFileCount(ctx, req.caller)
}

func (s *Server) listUsers(ctx context.Context, req *request) (any, error) {
	return s.svc.Users.ListUsers(ctx, req.caller)
}

func (s *Server) createUser(ctx context.Context, req *request) (any, error) {
	var in services.CreateUserInput
	if err := req.decode(&in); err != nil {
		return nil, err
	}
	return s.svc.Users.CreateUser(ctx, req.caller, &in)
}

func (s *Server) updateUser(ctx context.Context, req *request) (any, error) {
	var in services.UpdateUserInput
	if err := req.decode(&in); err != nil {
		return nil, err
	}
	return s.svc.Users.UpdateUser(ctx, req.caller, req.param("id"), &in)
}

func (s *Server) deleteUser(ctx context.Context, req *request) (any, error) {
	return nil, s.svc.Users.DeleteUser(ctx, req.caller, req.param("id"))
}

func (s *Server) downloadDatabase(ctx context.Context, req *request) (any, error) {
	return s.svc.Utility.DownloadDatabase(ctx, req.caller)
}
