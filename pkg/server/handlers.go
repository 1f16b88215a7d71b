package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/aj-geddes/tinaa-playwright-msp/pkg/insights"
	"github.com/aj-geddes/tinaa-playwright-msp/pkg/playbook"
)

// actionRequest is the body shared by the single-action endpoints.
type actionRequest struct {
	URL        string         `json:"url"`
	FocusArea  string         `json:"focus_area"`
	Parameters map[string]any `json:"parameters"`
	ClientID   string         `json:"client_id"`
}

// actionResponse wraps a run result with optional generated insights.
type actionResponse struct {
	Result   *playbook.Result  `json:"result"`
	Insights *insights.Insight `json:"ai_insights,omitempty"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"sessions": len(s.manager.List()),
	})
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"sessions": s.manager.List()})
}

// runSingleAction executes one action as a single-step playbook so
// every endpoint shares the same progress and error semantics.
func (s *Server) runSingleAction(ctx context.Context, req actionRequest, action playbook.Action, params map[string]any) (*playbook.Result, error) {
	sess, err := s.session()
	if err != nil {
		return nil, fmt.Errorf("browser session unavailable: %w", err)
	}

	pb := &playbook.Playbook{
		Name: string(action),
		Steps: []playbook.Step{
			{Action: action, Parameters: params},
		},
	}
	pb.Normalize()

	executor := playbook.NewExecutor(sess, s.hub.Sink(req.ClientID))
	return executor.Execute(ctx, pb), nil
}

func (s *Server) handleNavigate(c *fiber.Ctx) error {
	var req actionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.URL == "" {
		return fiber.NewError(fiber.StatusBadRequest, "url is required")
	}

	result, err := s.runSingleAction(c.Context(), req, playbook.ActionNavigate, map[string]any{"url": req.URL})
	if err != nil {
		return err
	}
	return c.JSON(actionResponse{Result: result})
}

func (s *Server) handleScreenshot(c *fiber.Ctx) error {
	var req actionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	params := req.Parameters
	if params == nil {
		params = map[string]any{}
	}
	result, err := s.runSingleAction(c.Context(), req, playbook.ActionScreenshot, params)
	if err != nil {
		return err
	}
	return c.JSON(actionResponse{Result: result})
}

func (s *Server) handleExploratory(c *fiber.Ctx) error {
	var req actionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.URL == "" {
		return fiber.NewError(fiber.StatusBadRequest, "url is required")
	}
	if req.FocusArea == "" {
		req.FocusArea = "general"
	}

	result, err := s.runSingleAction(c.Context(), req, playbook.ActionTestExploratory, map[string]any{
		"url":        req.URL,
		"focus_area": req.FocusArea,
	})
	if err != nil {
		return err
	}

	resp := actionResponse{Result: result}
	if s.insights != nil {
		title := ""
		if sess, err := s.manager.Get(defaultSessionName); err == nil {
			title, _ = sess.Title()
		}
		insight := s.insights.Exploratory(c.Context(), req.URL, title, req.FocusArea)
		if insight.Text != "" {
			resp.Insights = &insight
		}
	}
	return c.JSON(resp)
}

func (s *Server) handleAccessibility(c *fiber.Ctx) error {
	var req actionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := s.runSingleAction(c.Context(), req, playbook.ActionTestAccessibility, nil)
	if err != nil {
		return err
	}
	return c.JSON(actionResponse{Result: result})
}

func (s *Server) handleResponsive(c *fiber.Ctx) error {
	var req actionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := s.runSingleAction(c.Context(), req, playbook.ActionTestResponsive, req.Parameters)
	if err != nil {
		return err
	}
	return c.JSON(actionResponse{Result: result})
}

func (s *Server) handleSecurity(c *fiber.Ctx) error {
	var req actionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := s.runSingleAction(c.Context(), req, playbook.ActionTestSecurity, nil)
	if err != nil {
		return err
	}
	return c.JSON(actionResponse{Result: result})
}

func (s *Server) handleDetectForms(c *fiber.Ctx) error {
	var req actionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := s.runSingleAction(c.Context(), req, playbook.ActionDetectForms, req.Parameters)
	if err != nil {
		return err
	}
	return c.JSON(actionResponse{Result: result})
}

// playbookRequest is the executable playbook plus its requesting
// client.
type playbookRequest struct {
	playbook.Playbook
	ClientID string `json:"client_id"`
}

func (s *Server) handleExecutePlaybook(c *fiber.Ctx) error {
	var req playbookRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid playbook")
	}

	pb := req.Playbook
	pb.Normalize()
	if err := pb.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	sess, err := s.session()
	if err != nil {
		return fmt.Errorf("browser session unavailable: %w", err)
	}

	executor := playbook.NewExecutor(sess, s.hub.Sink(req.ClientID))
	result := executor.Execute(c.Context(), &pb)
	return c.JSON(result)
}

type suggestionsRequest struct {
	Steps []playbook.Step `json:"steps"`
}

func (s *Server) handleSuggestions(c *fiber.Ctx) error {
	var req suggestionsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return c.JSON(fiber.Map{"suggestions": playbook.Suggest(req.Steps)})
}

// handleWS keeps a client registered for progress streaming while the
// connection lives. Inbound traffic is only pings.
func (s *Server) handleWS(conn *websocket.Conn) {
	clientID := conn.Params("client_id")
	if clientID == "" {
		_ = conn.Close()
		return
	}

	s.hub.Register(clientID, conn)
	defer s.hub.Unregister(clientID)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			if err := s.hub.Send(clientID, fiber.Map{"type": "pong"}); err != nil {
				return
			}
		}
	}
}
