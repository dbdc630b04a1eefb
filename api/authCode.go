package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/tidepool-org/steamguard/models"
	"github.com/tidepool-org/steamguard/utils/otp"
)

// GenerateAuthCode handles the Steam Guard code route
// @Summary Generate the Steam Guard code of a shared secret
// @Description The offset in the body overrides the one measured with /time/sync
// @Accept  json
// @Produce  json
// @Success 200 {object} models.AuthCodeResponse
// @Failure 400 {object} status.Status "body is malformed or the secret can't be decoded"
// @Router /code [post]
func (a *Api) GenerateAuthCode(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body models.AuthCodeRequest
	if !a.decodeBody(res, req, &body) {
		return
	}

	offset := a.TimeOffset().Offset
	if body.Offset != nil {
		offset = *body.Offset
	}

	code, err := otp.NewAuthCode(otp.ParseSecret(body.Secret), otp.Time(offset))
	if err != nil {
		a.sendSecretError(ctx, res, STATUS_ERR_GENERATING_CODE, err)
		return
	}

	a.sendModelAsResWithStatus(ctx, res, models.AuthCodeResponse{
		Code:      code.Code,
		Step:      code.Step,
		Timestamp: code.Timestamp,
		ExpiresIn: code.ExpiresIn,
	}, http.StatusOK)
}

// sendSecretError answers 400 for secrets that can't be decoded or times
// before the epoch, 500 otherwise
func (a *Api) sendSecretError(ctx context.Context, res http.ResponseWriter, reason string, err error) {
	switch {
	case errors.Is(err, otp.ErrInvalidSecretFormat):
		a.sendError(ctx, res, http.StatusBadRequest, STATUS_ERR_INVALID_SECRET, err)
		return
	case errors.Is(err, otp.ErrTimeBeforeEpoch):
		a.sendError(ctx, res, http.StatusBadRequest, STATUS_ERR_BEFORE_EPOCH, err)
		return
	}
	a.sendError(ctx, res, http.StatusInternalServerError, reason, err)
}
