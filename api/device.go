package api

import (
	"net/http"

	"github.com/tidepool-org/steamguard/models"
	"github.com/tidepool-org/steamguard/utils/otp"
)

// GetDeviceID handles the device id route
// @Summary Derive the mobile device id of a SteamID64
// @Router /device [post]
func (a *Api) GetDeviceID(res http.ResponseWriter, req *http.Request) {
	var body models.DeviceIDRequest
	if !a.decodeBody(res, req, &body) {
		return
	}
	a.sendModelAsResWithStatus(req.Context(), res, models.DeviceIDResponse{DeviceID: otp.DeviceID(body.SteamID)}, http.StatusOK)
}
