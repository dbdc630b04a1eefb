package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tidepool-org/go-common/clients/status"
	"github.com/tidepool-org/steamguard/clients/steamtime"
	"github.com/tidepool-org/steamguard/models"
)

type (
	Api struct {
		timeSync   steamtime.ClientInterface
		baseLogger *zap.SugaredLogger
		Config     Config

		mu     sync.Mutex
		offset models.TimeOffset
	}
	Config struct {
		TimeOffset  int64 `split_words:"true" default:"0"`
		SyncOnStart bool  `split_words:"true" default:"false"`
	}
)

const (
	STATUS_ERR_DECODING_BODY   = "Error decoding the request body"
	STATUS_ERR_VALIDATING_BODY = "Error validating the request body"
	STATUS_ERR_INVALID_SECRET  = "The secret is neither hex, base64 nor raw bytes"
	STATUS_ERR_GENERATING_CODE = "Error generating the auth code"
	STATUS_ERR_SIGNING         = "Error signing the confirmation"
	STATUS_ERR_SYNCING_TIME    = "Error querying Steam server time"
	STATUS_ERR_MALFORMED_TIME  = "Steam answered with a malformed server time"
	STATUS_ERR_BEFORE_EPOCH    = "The offset moves the time before the unix epoch"
	STATUS_OK                  = "OK"
)

const maxRequestBodyBytes = 1 << 16

func NewApi(cfg Config, timeSync steamtime.ClientInterface, logger *zap.SugaredLogger) *Api {
	return &Api{
		timeSync:   timeSync,
		baseLogger: logger,
		Config:     cfg,
		offset:     models.TimeOffset{Offset: cfg.TimeOffset},
	}
}

func apiConfigProvider() (Config, error) {
	var config Config
	err := envconfig.Process("steamguard", &config)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func routerProvider(api *Api) *mux.Router {
	rtr := mux.NewRouter()
	api.SetHandlers("", rtr)
	return rtr
}

// RouterModule build a router
var RouterModule = fx.Options(fx.Provide(routerProvider, apiConfigProvider, NewApi))

type ctxLoggerKey struct{}

func (a *Api) logger(ctx context.Context) *zap.SugaredLogger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*zap.SugaredLogger); ok {
		return logger
	}
	return a.cloneLogger()
}

func (a *Api) cloneLogger() *zap.SugaredLogger {
	return a.baseLogger.WithOptions()
}

func (a *Api) ctxLoggerHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLog := a.cloneLogger().With(zap.String("method", r.Method), zap.String("path", r.URL.Path))
		ctxWithLog := context.WithValue(r.Context(), ctxLoggerKey{}, ctxLog)
		h.ServeHTTP(w, r.WithContext(ctxWithLog))
	})
}

func (a *Api) SetHandlers(prefix string, rtr *mux.Router) {
	rtr.Use(mux.MiddlewareFunc(a.ctxLoggerHandler))

	r := rtr
	if prefix != "" {
		r = rtr.PathPrefix(prefix).Subrouter()
	}

	r.HandleFunc("/status", a.IsReady).Methods("GET")
	r.HandleFunc("/ready", a.IsReady).Methods("GET")
	r.HandleFunc("/live", a.IsAlive).Methods("GET")

	// POST /code
	// POST /confirmation
	// POST /device
	r.HandleFunc("/code", a.GenerateAuthCode).Methods("POST")
	r.HandleFunc("/confirmation", a.SignConfirmation).Methods("POST")
	r.HandleFunc("/device", a.GetDeviceID).Methods("POST")

	// POST /time/sync
	// GET /time/offset
	t := r.PathPrefix("/time").Subrouter()
	t.HandleFunc("/sync", a.SyncTime).Methods("POST")
	t.HandleFunc("/offset", a.GetTimeOffset).Methods("GET")
}

func (a *Api) IsReady(res http.ResponseWriter, req *http.Request) {
	res.WriteHeader(http.StatusOK)
	res.Write([]byte(STATUS_OK))
}

func (a *Api) IsAlive(res http.ResponseWriter, req *http.Request) {
	res.WriteHeader(http.StatusOK)
	res.Write([]byte(STATUS_OK))
}

// decodeBody reads a JSON request body into v, writing a 400 if it can't
func (a *Api) decodeBody(res http.ResponseWriter, req *http.Request, v interface{ Validate() error }) bool {
	ctx := req.Context()
	dec := json.NewDecoder(http.MaxBytesReader(res, req.Body, maxRequestBodyBytes))
	if err := dec.Decode(v); err != nil {
		a.sendError(ctx, res, http.StatusBadRequest, STATUS_ERR_DECODING_BODY, err)
		return false
	}
	if err := v.Validate(); err != nil {
		a.sendError(ctx, res, http.StatusBadRequest, STATUS_ERR_VALIDATING_BODY, err)
		return false
	}
	return true
}

func (a *Api) sendModelAsResWithStatus(ctx context.Context, res http.ResponseWriter, model interface{}, statusCode int) {
	if jsonDetails, err := json.Marshal(model); err != nil {
		a.logger(ctx).With(zap.Error(err)).Errorf("trying to send model")
		http.Error(res, "Error marshaling data for response", http.StatusInternalServerError)
	} else {
		res.Header().Set("content-type", "application/json")
		res.WriteHeader(statusCode)
		res.Write(jsonDetails)
	}
}

func (a *Api) sendError(ctx context.Context, res http.ResponseWriter, statusCode int, reason string, extras ...interface{}) {
	a.sendErrorLog(ctx, statusCode, reason, extras...)
	a.sendModelAsResWithStatus(ctx, res, status.NewStatus(statusCode, reason), statusCode)
}

func (a *Api) sendErrorLog(ctx context.Context, code int, reason string, extras ...interface{}) {
	details := splitExtrasAndErrorsAndFields(extras)
	log := a.logger(ctx).WithOptions(zap.AddCallerSkip(2)).
		Desugar().With(details.Fields...).Sugar().
		With(zap.Int("code", code))
	if len(details.NonErrors) > 0 {
		log = log.With(zap.Array("extras", zapArrayAny(details.NonErrors)))
	}
	if len(details.Errors) == 1 {
		log = log.With(zap.Error(details.Errors[0]))
	} else if len(details.Errors) > 1 {
		log = log.With(zap.Errors("errors", details.Errors))
	}
	if code < http.StatusInternalServerError || len(details.Errors) == 0 {
		// client errors don't need a stack trace
		log.Info(reason)
	} else {
		log.Error(reason)
	}
}

type extrasDetails struct {
	Errors    []error
	NonErrors []interface{}
	Fields    []zap.Field
}

func splitExtrasAndErrorsAndFields(extras []interface{}) extrasDetails {
	details := extrasDetails{}
	for _, extra := range extras {
		switch v := extra.(type) {
		case error:
			details.Errors = append(details.Errors, v)
		case zap.Field:
			details.Fields = append(details.Fields, v)
		default:
			details.NonErrors = append(details.NonErrors, extra)
		}
	}
	return details
}

// zapArrayAny helps convert extras to strings for inclusion in a structured
// log message.
func zapArrayAny(extras []interface{}) zapcore.ArrayMarshalerFunc {
	return zapcore.ArrayMarshalerFunc(func(enc zapcore.ArrayEncoder) error {
		for _, extra := range extras {
			enc.AppendString(fmt.Sprintf("%v", extra))
		}
		return nil
	})
}
