package triage

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lueurxax/proactive-notifier/internal/core/domain"
	"github.com/lueurxax/proactive-notifier/internal/ingest/bridge"
)

// handleManagementRoom consumes events from a bridge's management room. A
// disconnect notice from the bridge bot removes the bridge and, when no
// bridge is left, cancels the user's running pipelines.
func (e *Engine) handleManagementRoom(ctx context.Context, raw domain.BridgeEvent, logger *zerolog.Logger) (string, bool) {
	bridges, err := e.deps.Bridges.ListBridges(ctx, raw.UserID)
	if err != nil {
		logger.Warn().Err(err).Msg("bridge lookup failed")

		if raw.IsManagementRoom {
			return OutcomeManagementIgnored, true
		}

		return "", false
	}

	var mgmt *domain.Bridge

	for i := range bridges {
		if bridges[i].RoomID != "" && bridges[i].RoomID == raw.RoomID {
			mgmt = &bridges[i]
			break
		}
	}

	if mgmt == nil {
		if raw.IsManagementRoom {
			return OutcomeManagementIgnored, true
		}

		return "", false
	}

	service := domain.Service(mgmt.BridgeType)

	if mgmt.Status == domain.BridgeStatusConnecting {
		return OutcomeManagementIgnored, true
	}

	if !bridge.IsBridgeBot(service, raw.Sender, e.cfg.BridgeBots[string(service)]) {
		return OutcomeManagementIgnored, true
	}

	if raw.MsgType != bridge.MsgTypeText && raw.MsgType != bridge.MsgTypeNotice {
		return OutcomeManagementIgnored, true
	}

	if !bridge.IsDisconnectNotice(raw.Body) {
		return OutcomeManagementIgnored, true
	}

	logger.Info().Str(logKeyService, string(service)).Str("notice", raw.Body).Msg("bridge disconnect detected")

	if err := e.deps.Bridges.DeleteBridge(ctx, raw.UserID, service); err != nil {
		logger.Error().Err(err).Str(logKeyService, string(service)).Msg("failed to delete bridge")
	}

	remaining, err := e.deps.Bridges.ListBridges(ctx, raw.UserID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list remaining bridges")
	}

	if err == nil && len(remaining) == 0 {
		n := e.deps.Registry.CancelUser(raw.UserID)
		logger.Info().Int("pipelines", n).Msg("no bridges left, canceled pending pipelines")
	}

	return OutcomeBridgeDisconnected, true
}
