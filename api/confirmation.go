package api

import (
	"net/http"

	"github.com/tidepool-org/steamguard/models"
	"github.com/tidepool-org/steamguard/utils/otp"
)

// SignConfirmation handles the confirmation key route
// @Summary Sign a mobile confirmation request with an identity secret
// @Description When time is missing the current time shifted by the measured offset is used
// @Accept  json
// @Produce  json
// @Success 200 {object} models.ConfirmationKeyResponse
// @Failure 400 {object} status.Status "body is malformed or the secret can't be decoded"
// @Router /confirmation [post]
func (a *Api) SignConfirmation(res http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body models.ConfirmationKeyRequest
	if !a.decodeBody(res, req, &body) {
		return
	}

	timestamp := otp.Time(a.TimeOffset().Offset)
	if body.Time != nil {
		timestamp = *body.Time
	}

	key, err := otp.ConfirmationKey(otp.ParseSecret(body.IdentitySecret), timestamp, body.Tag)
	if err != nil {
		a.sendSecretError(ctx, res, STATUS_ERR_SIGNING, err)
		return
	}

	a.sendModelAsResWithStatus(ctx, res, models.ConfirmationKeyResponse{
		Key:  key,
		Time: timestamp,
		Tag:  body.Tag,
	}, http.StatusOK)
}
