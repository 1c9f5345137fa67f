package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jypelle/ledtune/apimodel"
	"github.com/jypelle/ledtune/internal/srv/config"
	"github.com/jypelle/ledtune/internal/srv/event"
	"github.com/jypelle/ledtune/internal/tool"
	"github.com/sirupsen/logrus"
	"html/template"
	"image"
	"image/png"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"
)

// ErrApiStopped is returned to requests still in flight once the api stopped sending events
var ErrApiStopped = errors.New("api stopped")

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width"><title>ledtune</title></head>
<body>
<h1>ledtune</h1>
{{if .Error}}<p style="color:red">{{.Error}}</p>{{end}}
<form method="post" action="/">
<p><label>Text <input type="text" name="text" value="{{.Marquee.Text}}" size="40"></label></p>
<p><label>Color <input type="text" name="color" value="{{.Marquee.Color}}" placeholder="#RRGGBB or R,G,B"></label></p>
<p><input type="submit" value="Update"></p>
</form>
</body>
</html>
`))

type formPage struct {
	Marquee apimodel.Marquee
	Error   string
}

type Api struct {
	eventChannel chan event.ApiEvent
	stopped      chan struct{}
	stopOnce     sync.Once

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	config *config.ServerConfig
}

func NewApi(config *config.ServerConfig) *Api {
	api := Api{
		config:       config,
		eventChannel: make(chan event.ApiEvent),
		stopped:      make(chan struct{}),
	}

	api.router = mux.NewRouter().StrictSlash(false)
	api.router.Use(recoverMiddleware)

	// Web form
	api.router.HandleFunc("/", api.formAction).Methods("GET")
	api.router.HandleFunc("/", api.formSubmitAction).Methods("POST")

	// API Routes
	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// Check API Key
				apiKey := r.Header.Get("x-api-key")
				if apiKey != config.ServerParam.ApiParam.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s", r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	// Create server check endpoint
	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")
	api.apiRouter.HandleFunc("/marquee", api.marqueeGetAction).Methods("GET")
	api.apiRouter.HandleFunc("/marquee", api.marqueeSetAction).Methods("POST")
	api.apiRouter.HandleFunc("/display", api.displayStatusAction).Methods("GET")
	api.apiRouter.HandleFunc("/display/switch", api.displaySwitchAction).Methods("POST")
	api.apiRouter.HandleFunc("/frame.png", api.frameAction).Methods("GET")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Api-Key"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.ServerParam.ApiParam.SslPort, 10),
		Handler:      handlers.CompressHandler(handlers.CORS(originsOk, headersOk, methodsOk)(api.router)),
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

func (d *Api) Start() {
	logrus.Infof("Start api device")

	created, err := tool.EnsureTlsCertificate(
		"jypelle",
		"Ledtune Server",
		d.config.GetCompleteKeyFilename(),
		d.config.GetCompleteCertFilename(),
		[]string{})
	if err != nil {
		logrus.Fatalf("Unable to prepare cert and key files : %v\n", err)
	}
	if created {
		logrus.Info("Self-signed cert and key files generated")
	}

	// Launch https server
	go func() {
		err := d.server.ListenAndServeTLS(d.config.GetCompleteCertFilename(), d.config.GetCompleteKeyFilename())
		if err != nil && err != http.ErrServerClosed {
			logrus.Error(err)
		}
	}()
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop api device")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.server.Shutdown(ctx); err != nil {
		logrus.Warnf("Unable to shutdown api server: %v", err)
	}
	// Handlers still running after the timeout must not wait for the event loop anymore
	d.stopOnce.Do(func() { close(d.stopped) })
}

func (d *Api) EventChannel() chan event.ApiEvent {
	return d.eventChannel
}

// Handler returns the routes without the TLS server
func (d *Api) Handler() http.Handler {
	return d.router
}

// send hands data to the event loop and waits for its answer
func (d *Api) send(data interface{}) error {
	result := make(chan error, 1)
	select {
	case d.eventChannel <- event.ApiEvent{Result: result, Data: data}:
	case <-d.stopped:
		return ErrApiStopped
	}
	select {
	case err := <-result:
		return err
	case <-d.stopped:
		return ErrApiStopped
	}
}

func (d *Api) formAction(w http.ResponseWriter, r *http.Request) {
	page := formPage{}
	if err := d.send(event.ApiEventMarqueeGetData{Marquee: &page.Marquee}); err != nil {
		page.Error = err.Error()
	}
	d.renderForm(w, page, http.StatusOK)
}

func (d *Api) formSubmitAction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ErrorStatusAction(w, r, http.StatusBadRequest)
		return
	}
	marquee := apimodel.Marquee{Text: r.PostForm.Get("text"), Color: r.PostForm.Get("color")}
	if err := d.send(event.ApiEventMarqueeSetData{Marquee: marquee}); err != nil {
		d.renderForm(w, formPage{Marquee: marquee, Error: err.Error()}, http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (d *Api) renderForm(w http.ResponseWriter, page formPage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := formTemplate.Execute(w, page); err != nil {
		logrus.Warnf("Unable to render form: %v", err)
	}
}

func (d *Api) marqueeGetAction(w http.ResponseWriter, r *http.Request) {
	var marquee apimodel.Marquee
	if err := d.send(event.ApiEventMarqueeGetData{Marquee: &marquee}); err != nil {
		GlobalErrorAction(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	sendJson(w, marquee)
}

func (d *Api) marqueeSetAction(w http.ResponseWriter, r *http.Request) {
	var marquee apimodel.Marquee
	if err := json.NewDecoder(r.Body).Decode(&marquee); err != nil {
		apimodel.WrongParametersErrorMessage.SendError(w)
		return
	}
	if err := d.send(event.ApiEventMarqueeSetData{Marquee: marquee}); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrApiStopped) {
			status = http.StatusServiceUnavailable
		}
		GlobalErrorAction(w, err.Error(), status)
		return
	}
	sendJson(w, marquee)
}

func (d *Api) displayStatusAction(w http.ResponseWriter, r *http.Request) {
	var status apimodel.DisplayStatus
	if err := d.send(event.ApiEventDisplayStatusData{Status: &status}); err != nil {
		GlobalErrorAction(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	sendJson(w, status)
}

func (d *Api) displaySwitchAction(w http.ResponseWriter, r *http.Request) {
	var status apimodel.DisplayStatus
	if err := d.send(event.ApiEventDisplaySwitchData{Status: &status}); err != nil {
		GlobalErrorAction(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	sendJson(w, status)
}

func (d *Api) frameAction(w http.ResponseWriter, r *http.Request) {
	var frame image.Image
	if err := d.send(event.ApiEventFrameData{Frame: &frame}); err != nil {
		GlobalErrorAction(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if frame == nil {
		GlobalErrorAction(w, "no frame yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, frame); err != nil {
		logrus.Warnf("Unable to encode frame: %v", err)
	}
}

func recoverMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
				strMessage := fmt.Sprintf("%v", rec)
				GlobalErrorAction(w, strMessage, http.StatusInternalServerError)
			}
		}()
		handler.ServeHTTP(w, r)
	})
}

func sendJson(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("Unable to encode response: %v", err)
	}
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	ErrorMessageAction(w, message, status)
}

func ErrorMessageAction(w http.ResponseWriter, title string, status int) {
	apimodel.ErrorMessage{ErrStatusCode: status, ErrMessage: title}.SendError(w)
}
