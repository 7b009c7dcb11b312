package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/flowscape/flowscape/backend/internal/domain/content"
	"github.com/flowscape/flowscape/backend/internal/domain/lifecycle"
	"github.com/flowscape/flowscape/backend/internal/shared/utils"
)

const commandTimeout = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The stream only serves the bundled desktop shell.
		return true
	},
}

// Handler serves the UI command stream.
type Handler struct {
	controller *lifecycle.Controller
	sanitizer  *content.Sanitizer
	hub        *Hub
	logger     *zap.Logger
}

// NewHandler creates a websocket handler over the controller.
func NewHandler(controller *lifecycle.Controller, sanitizer *content.Sanitizer, hub *Hub, logger *zap.Logger) *Handler {
	return &Handler{
		controller: controller,
		sanitizer:  sanitizer,
		hub:        hub,
		logger:     logger,
	}
}

// HandleConnection upgrades the request and runs the command loop until the
// UI disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	cl := h.hub.register(conn)
	defer h.hub.unregister(cl)

	_ = cl.write(Envelope{Type: "system", Data: gin.H{"message": "connected"}})

	reqCtx := c.Request.Context()
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		h.dispatch(reqCtx, cl, req)
	}
}

func (h *Handler) dispatch(parent context.Context, cl *client, req Request) {
	ctx, cancel := context.WithTimeout(parent, commandTimeout)
	defer cancel()
	h.hub.record("in", req.Type)

	switch req.Type {
	case CmdCreateView:
		var p CreateViewPayload
		if !h.decode(cl, req, &p) {
			return
		}
		if err := validateCreate(p.WorkspaceID, p.PageID, p.URL); err != nil {
			h.sendError(cl, req.ID, err.Error())
			return
		}
		err := h.controller.CreateView(ctx, p.WorkspaceID, p.PageID, p.URL, p.State)
		if err == nil && h.hub.rec != nil {
			h.hub.rec.IncViewsCreated()
		}
		h.reply(cl, req, nil, err)

	case CmdSelectView:
		var p SelectViewPayload
		if !h.decode(cl, req, &p) {
			return
		}
		if p.URL != "" {
			if err := utils.ValidateNavigationURL(p.URL); err != nil {
				h.sendError(cl, req.ID, err.Error())
				return
			}
		}
		err := h.controller.SelectView(ctx, p.WorkspaceID, p.PageID, p.URL, p.State)
		if err == nil && h.hub.rec != nil {
			h.hub.rec.IncViewSwitches()
		}
		h.reply(cl, req, nil, err)

	case CmdResizeView:
		var p ResizeViewPayload
		if !h.decode(cl, req, &p) {
			return
		}
		h.reply(cl, req, nil, h.controller.ResizeView(p.Bounds, p.WorkspaceID, p.PageID))

	case CmdDockView:
		var p DockViewPayload
		if !h.decode(cl, req, &p) {
			return
		}
		h.reply(cl, req, nil, h.controller.DockView(p.WorkspaceID, p.PageID, p.Docked))

	case CmdRemoveView:
		var p ViewPayload
		if !h.decode(cl, req, &p) {
			return
		}
		h.reply(cl, req, nil, h.controller.RemoveView(p.WorkspaceID, p.PageID))

	case CmdRemoveWorkspace:
		var p WorkspacePayload
		if !h.decode(cl, req, &p) {
			return
		}
		removed := h.controller.RemoveWorkspaceViews(p.WorkspaceID)
		h.reply(cl, req, gin.H{"removed": removed}, nil)

	case CmdCaptureState:
		var p ViewPayload
		if !h.decode(cl, req, &p) {
			return
		}
		state, err := h.controller.CaptureState(ctx, p.WorkspaceID, p.PageID)
		h.reply(cl, req, state, err)

	case CmdRestoreState:
		var p RestoreStatePayload
		if !h.decode(cl, req, &p) {
			return
		}
		outcome, err := h.controller.RestoreState(ctx, p.WorkspaceID, p.PageID, p.State)
		h.reply(cl, req, outcome, err)

	case CmdBlockerStatus:
		h.reply(cl, req, h.controller.BlockerStatus(), nil)

	case CmdToggleBlocker:
		enabled := h.controller.ToggleBlocker()
		h.reply(cl, req, gin.H{"enabled": enabled}, nil)

	case CmdNavBack:
		var p ViewPayload
		if !h.decode(cl, req, &p) {
			return
		}
		h.reply(cl, req, nil, h.controller.Back(ctx, p.WorkspaceID, p.PageID))

	case CmdNavForward:
		var p ViewPayload
		if !h.decode(cl, req, &p) {
			return
		}
		h.reply(cl, req, nil, h.controller.Forward(ctx, p.WorkspaceID, p.PageID))

	case CmdReload:
		var p ViewPayload
		if !h.decode(cl, req, &p) {
			return
		}
		h.reply(cl, req, nil, h.controller.Reload(ctx, p.WorkspaceID, p.PageID))

	case CmdScreenshot:
		var p ViewPayload
		if !h.decode(cl, req, &p) {
			return
		}
		png, err := h.controller.Screenshot(ctx, p.WorkspaceID, p.PageID)
		h.reply(cl, req, gin.H{"png": png}, err)

	case CmdGetHTML:
		var p ViewPayload
		if !h.decode(cl, req, &p) {
			return
		}
		raw, err := h.controller.HTML(ctx, p.WorkspaceID, p.PageID)
		if err != nil {
			h.reply(cl, req, nil, err)
			return
		}
		h.reply(cl, req, h.sanitizer.Sanitize(raw), nil)

	case CmdToggleDevTools:
		var p ViewPayload
		if !h.decode(cl, req, &p) {
			return
		}
		h.reply(cl, req, nil, h.controller.ToggleDevTools(ctx, p.WorkspaceID, p.PageID))

	case CmdPing:
		_ = cl.write(Envelope{Type: "pong", ID: req.ID})

	default:
		h.sendError(cl, req.ID, "unknown command type: "+req.Type)
	}
}

func validateCreate(workspaceID, pageID, rawURL string) error {
	if err := utils.ValidateID(workspaceID, "workspace_id"); err != nil {
		return err
	}
	if err := utils.ValidateID(pageID, "page_id"); err != nil {
		return err
	}
	return utils.ValidateNavigationURL(rawURL)
}

// decode unmarshals the command payload, rejecting malformed input with a
// typed error event.
func (h *Handler) decode(cl *client, req Request, out any) bool {
	if len(req.Payload) == 0 {
		h.sendError(cl, req.ID, "missing payload for "+req.Type)
		return false
	}
	if err := utils.ValidatePayloadSize(req.Payload); err != nil {
		h.sendError(cl, req.ID, err.Error())
		return false
	}
	if err := json.Unmarshal(req.Payload, out); err != nil {
		h.logger.Debug("malformed payload",
			zap.String("command", req.Type),
			zap.Error(err),
		)
		h.sendError(cl, req.ID, "malformed payload for "+req.Type)
		return false
	}
	return true
}

func (h *Handler) reply(cl *client, req Request, data any, err error) {
	if err != nil {
		h.sendError(cl, req.ID, err.Error())
		return
	}
	_ = cl.write(Envelope{Type: "result", ID: req.ID, Data: data})
}

func (h *Handler) sendError(cl *client, reqID, msg string) {
	_ = cl.write(Envelope{Type: "error", ID: reqID, Error: msg})
}
