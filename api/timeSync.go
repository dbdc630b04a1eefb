package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tidepool-org/steamguard/clients/steamtime"
	"github.com/tidepool-org/steamguard/models"
)

// TimeOffset returns the offset codes are currently generated with
func (a *Api) TimeOffset() models.TimeOffset {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.offset
}

func (a *Api) setTimeOffset(offset models.TimeOffset) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.offset = offset
}

// Sync measures the offset against Steam and keeps it for later requests.
// The kept offset is left untouched when the measurement fails.
func (a *Api) Sync(ctx context.Context) (*models.TimeOffset, error) {
	offset, err := a.timeSync.QueryOffset(ctx)
	if err != nil {
		return nil, err
	}
	a.setTimeOffset(*offset)
	a.logger(ctx).With(zap.Int64("offset", offset.Offset), zap.Int64("latency", offset.Latency)).
		Info("synchronized with Steam server time")
	return offset, nil
}

// SyncTime handles the time synchronization route
// @Summary Measure the local clock offset against Steam
// @Produce  json
// @Success 200 {object} models.TimeOffset
// @Failure 502 {object} status.Status "Steam could not be reached or answered with garbage"
// @Router /time/sync [post]
func (a *Api) SyncTime(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	offset, err := a.Sync(ctx)
	if err != nil {
		if errors.Is(err, steamtime.ErrMalformedResponse) {
			a.sendError(ctx, res, http.StatusBadGateway, STATUS_ERR_MALFORMED_TIME, err)
		} else {
			a.sendError(ctx, res, http.StatusBadGateway, STATUS_ERR_SYNCING_TIME, err)
		}
		return
	}
	a.sendModelAsResWithStatus(ctx, res, offset, http.StatusOK)
}

// GetTimeOffset handles the current offset route
// @Produce  json
// @Success 200 {object} models.TimeOffset
// @Router /time/offset [get]
func (a *Api) GetTimeOffset(res http.ResponseWriter, req *http.Request) {
	a.sendModelAsResWithStatus(req.Context(), res, a.TimeOffset(), http.StatusOK)
}
