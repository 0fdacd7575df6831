package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/toolrpc/toolrpc/middleware"
	"github.com/toolrpc/toolrpc/server"
)

// Domain error codes returned in the codigo_error field.
const (
	CodigoParametroInvalido  = "PARAMETRO_INVALIDO"
	CodigoAPIKeyInvalida     = "API_KEY_INVALIDA"
	CodigoCiudadNoEncontrada = "CIUDAD_NO_ENCONTRADA"
	CodigoRateLimit          = "RATE_LIMIT"
	CodigoTimeout            = "TIMEOUT"
	CodigoErrorAPI           = "ERROR_API"
	CodigoErrorAPIClima      = "ERROR_API_CLIMA"
	CodigoErrorBusqueda      = "ERROR_BUSQUEDA"
	CodigoErrorValidacion    = "ERROR_VALIDACION"
	CodigoErrorInterno       = "ERROR_INTERNO"
)

// FalloClima is the domain failure payload. It rides inside a successful
// tools/call response with isError true.
type FalloClima struct {
	Error       string `json:"error"`
	CodigoError string `json:"codigo_error"`
}

// IsError always reports true.
func (f FalloClima) IsError() bool { return true }

// Viento describes wind conditions.
type Viento struct {
	Velocidad float64  `json:"velocidad"`
	Direccion int      `json:"direccion"`
	Rafagas   *float64 `json:"rafagas,omitempty"`
}

// Informe is the current-conditions payload for consultar_clima_actual.
type Informe struct {
	Ciudad           string             `json:"ciudad"`
	Pais             string             `json:"pais"`
	Coordenadas      map[string]float64 `json:"coordenadas"`
	Temperatura      float64            `json:"temperatura"`
	SensacionTermica float64            `json:"sensacion_termica"`
	Humedad          int                `json:"humedad"`
	Presion          int                `json:"presion"`
	Visibilidad      *float64           `json:"visibilidad,omitempty"`
	Condiciones      string             `json:"condiciones"`
	Viento           Viento             `json:"viento"`
	Nubes            map[string]int     `json:"nubes"`
	Amanecer         string             `json:"amanecer"`
	Atardecer        string             `json:"atardecer"`
	Timezone         int                `json:"timezone"`
	Timestamp        string             `json:"timestamp"`
	Unidades         string             `json:"unidades"`
}

// IsError always reports false.
func (i *Informe) IsError() bool { return false }

// Ciudad is one buscar_ciudades match.
type Ciudad struct {
	Nombre   string  `json:"nombre"`
	Pais     string  `json:"pais"`
	Estado   string  `json:"estado,omitempty"`
	Latitud  float64 `json:"latitud"`
	Longitud float64 `json:"longitud"`
}

// Busqueda is the buscar_ciudades result payload.
type Busqueda struct {
	Resultados []Ciudad `json:"resultados"`
	Total      int      `json:"total"`
	Query      string   `json:"query,omitempty"`
	Mensaje    string   `json:"mensaje"`
}

// IsError always reports false: an empty match list is a valid answer.
func (b Busqueda) IsError() bool { return false }

// Validacion is the validar_configuracion result payload.
type Validacion struct {
	Configuracion map[string]any `json:"configuracion"`
	Timestamp     string         `json:"timestamp"`
	EstadoGeneral string         `json:"estado_general"`
}

// IsError always reports false: a broken configuration is still a valid
// validation report.
func (v Validacion) IsError() bool { return false }

// Service implements the clima tools on top of the OpenWeatherMap client.
type Service struct {
	cfg    Config
	client *Client
	logger middleware.Logger
	now    func() time.Time
}

// NewService creates the service. A nil logger falls back to a no-op.
func NewService(cfg Config, logger middleware.Logger) *Service {
	if logger == nil {
		logger = middleware.NopLogger{}
	}
	return &Service{
		cfg:    cfg,
		client: NewClient(cfg),
		logger: logger,
		now:    time.Now,
	}
}

// ClimaInput is the consultar_clima_actual input.
type ClimaInput struct {
	Ciudad     string `json:"ciudad" jsonschema:"required,minLength=1,description=Nombre de la ciudad a consultar"`
	CodigoPais string `json:"codigo_pais,omitempty" jsonschema:"description=Código de país ISO de 2 letras,pattern=^[A-Z]{2}$"`
	Unidades   string `json:"unidades,omitempty" jsonschema:"description=Unidades de medida,enum=metric|imperial|standard,default=metric"`
	Idioma     string `json:"idioma,omitempty" jsonschema:"description=Código de idioma para la respuesta,default=es"`
}

// BusquedaInput is the buscar_ciudades input.
type BusquedaInput struct {
	Query string `json:"query" jsonschema:"required,minLength=2,description=Término de búsqueda para ciudades"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Número máximo de resultados a devolver,minimum=1,maximum=20,default=5"`
}

// ValidacionInput is the (empty) validar_configuracion input.
type ValidacionInput struct{}

// ConsultarClimaActual resolves the city to coordinates and fetches
// current conditions, reporting progress along the way. All failures are
// domain errors; only the progress plumbing can return a protocol error.
func (s *Service) ConsultarClimaActual(ctx context.Context, in ClimaInput) (any, error) {
	progress := server.ProgressFromContext(ctx)
	total := 100.0
	_ = progress.ReportWithMessage(0, &total, "Validando parámetros...")

	ciudad := strings.TrimSpace(in.Ciudad)
	if ciudad == "" {
		return FalloClima{
			Error:       "Nombre de ciudad requerido",
			CodigoError: CodigoParametroInvalido,
		}, nil
	}

	if !s.cfg.APIKeyValida() {
		s.logger.Error("API key no configurada o inválida")
		return FalloClima{
			Error:       "API key no configurada o inválida",
			CodigoError: CodigoAPIKeyInvalida,
		}, nil
	}

	unidades := in.Unidades
	if unidades == "" {
		unidades = "metric"
	}
	idioma := in.Idioma
	if idioma == "" {
		idioma = "es"
	}

	_ = progress.ReportWithMessage(25, &total, "Buscando ubicación...")

	lugar, fallo := s.localizar(ctx, ciudad, strings.TrimSpace(in.CodigoPais))
	if fallo != nil {
		return *fallo, nil
	}

	_ = progress.ReportWithMessage(50, &total, "Consultando datos meteorológicos...")

	cond, err := s.client.Current(ctx, lugar.Lat, lugar.Lon, unidades, idioma)
	if err != nil {
		s.logger.Error("error consultando datos meteorológicos",
			middleware.F("ciudad", ciudad),
			middleware.F("error", err.Error()),
		)
		return s.falloDesdeError(err, CodigoErrorAPIClima, "No se pudieron obtener datos meteorológicos"), nil
	}

	_ = progress.ReportWithMessage(100, &total, "Consulta completada")

	return s.informe(cond, unidades), nil
}

// localizar geocodes the city, retrying without the country code when the
// qualified query matches nothing. Callers get either a location or a
// domain failure.
func (s *Service) localizar(ctx context.Context, ciudad, codigoPais string) (*Lugar, *FalloClima) {
	query := ciudad
	if codigoPais != "" {
		query = ciudad + "," + codigoPais
	}

	lugares, err := s.client.Geocode(ctx, query, 1)
	if err != nil {
		f := s.falloDesdeError(err, CodigoErrorAPI, "Error al buscar la ubicación")
		return nil, &f
	}

	if len(lugares) == 0 && codigoPais != "" {
		s.logger.Info("búsqueda específica falló, intentando búsqueda general",
			middleware.F("ciudad", ciudad),
		)
		lugares, err = s.client.Geocode(ctx, ciudad, 1)
		if err != nil {
			f := s.falloDesdeError(err, CodigoErrorAPI, "Error al buscar la ubicación")
			return nil, &f
		}
	}

	if len(lugares) == 0 {
		return nil, &FalloClima{
			Error:       fmt.Sprintf("Ciudad '%s' no encontrada. Verifica el nombre e intenta con código de país.", ciudad),
			CodigoError: CodigoCiudadNoEncontrada,
		}
	}

	return &lugares[0], nil
}

// BuscarCiudades searches locations matching a free-text query.
func (s *Service) BuscarCiudades(ctx context.Context, in BusquedaInput) (any, error) {
	if !s.cfg.APIKeyValida() {
		return FalloClima{
			Error:       "API key no configurada o inválida",
			CodigoError: CodigoAPIKeyInvalida,
		}, nil
	}

	query := strings.TrimSpace(in.Query)
	limit := in.Limit
	if limit < 1 {
		limit = 5
	}
	if limit > 20 {
		limit = 20
	}

	lugares, err := s.client.Geocode(ctx, query, limit)
	if err != nil {
		s.logger.Error("error buscando ciudades",
			middleware.F("query", query),
			middleware.F("error", err.Error()),
		)
		return s.falloDesdeError(err, CodigoErrorBusqueda, "Error al buscar ciudades"), nil
	}

	if len(lugares) == 0 {
		return Busqueda{
			Resultados: []Ciudad{},
			Total:      0,
			Mensaje:    fmt.Sprintf("No se encontraron ciudades que coincidan con '%s'", query),
		}, nil
	}

	ciudades := make([]Ciudad, 0, len(lugares))
	for _, l := range lugares {
		ciudades = append(ciudades, Ciudad{
			Nombre:   l.Name,
			Pais:     l.Country,
			Estado:   l.State,
			Latitud:  l.Lat,
			Longitud: l.Lon,
		})
	}

	return Busqueda{
		Resultados: ciudades,
		Total:      len(ciudades),
		Query:      query,
		Mensaje:    fmt.Sprintf("Se encontraron %d ciudades", len(ciudades)),
	}, nil
}

// ValidarConfiguracion reports the server configuration and probes the
// upstream API for connectivity.
func (s *Service) ValidarConfiguracion(ctx context.Context, _ ValidacionInput) (any, error) {
	validacion := map[string]any{
		"api_key_configurada": s.cfg.APIKeyValida(),
		"timeout_segundos":    s.cfg.Timeout.Seconds(),
		"url_base":            strings.Replace(s.cfg.BaseURL, "https://api.openweathermap.org", "OpenWeatherMap API", 1),
		"cliente_http":        "Configurado",
		"version_servidor":    "1.0.0",
	}

	status, err := s.client.Probe(ctx)
	switch {
	case err != nil:
		validacion["api_funcional"] = false
		validacion["estado_conexion"] = "Error de conexión: " + err.Error()
	case status == 200:
		validacion["api_funcional"] = true
		validacion["estado_conexion"] = "Conectado"
	case status == 401:
		validacion["api_funcional"] = false
		validacion["estado_conexion"] = "API key inválida"
	default:
		validacion["api_funcional"] = false
		validacion["estado_conexion"] = fmt.Sprintf("Error HTTP %d", status)
	}

	estado := "REQUIERE_ATENCION"
	if validacion["api_funcional"] == true {
		estado = "OK"
	}

	return Validacion{
		Configuracion: validacion,
		Timestamp:     s.now().Format(time.RFC3339),
		EstadoGeneral: estado,
	}, nil
}

// falloDesdeError maps a client error to a domain failure, preferring the
// HTTP-status specific codes over the generic fallback.
func (s *Service) falloDesdeError(err error, fallbackCodigo, fallbackMensaje string) FalloClima {
	if isTimeout(err) {
		return FalloClima{
			Error:       "Timeout: la API tardó demasiado en responder",
			CodigoError: CodigoTimeout,
		}
	}

	var apiErr *apiError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case 401:
			return FalloClima{
				Error:       "API key inválida o sin permisos",
				CodigoError: CodigoAPIKeyInvalida,
			}
		case 404:
			return FalloClima{
				Error:       "Ubicación no encontrada en la API",
				CodigoError: CodigoCiudadNoEncontrada,
			}
		case 429:
			return FalloClima{
				Error:       "Límite de solicitudes API excedido",
				CodigoError: CodigoRateLimit,
			}
		default:
			return FalloClima{
				Error:       fmt.Sprintf("Error del servidor API (HTTP %d)", apiErr.Status),
				CodigoError: CodigoErrorAPI,
			}
		}
	}

	return FalloClima{
		Error:       fallbackMensaje + ": " + err.Error(),
		CodigoError: fallbackCodigo,
	}
}

// informe converts the raw upstream response to the Spanish-keyed payload.
func (s *Service) informe(cond *currentConditions, unidades string) *Informe {
	simbolos := map[string]string{
		"metric":   "°C",
		"imperial": "°F",
		"standard": "K",
	}
	simbolo, ok := simbolos[unidades]
	if !ok {
		simbolo = "N/A"
	}

	condiciones := ""
	if len(cond.Weather) > 0 {
		condiciones = cond.Weather[0].Description
	}

	return &Informe{
		Ciudad: cond.Name,
		Pais:   cond.Sys.Country,
		Coordenadas: map[string]float64{
			"latitud":  cond.Coord.Lat,
			"longitud": cond.Coord.Lon,
		},
		Temperatura:      cond.Main.Temp,
		SensacionTermica: cond.Main.FeelsLike,
		Humedad:          cond.Main.Humidity,
		Presion:          cond.Main.Pressure,
		Visibilidad:      cond.Visibility,
		Condiciones:      condiciones,
		Viento: Viento{
			Velocidad: cond.Wind.Speed,
			Direccion: cond.Wind.Deg,
			Rafagas:   cond.Wind.Gust,
		},
		Nubes:     map[string]int{"porcentaje": cond.Clouds.All},
		Amanecer:  time.Unix(cond.Sys.Sunrise, 0).Format("15:04"),
		Atardecer: time.Unix(cond.Sys.Sunset, 0).Format("15:04"),
		Timezone:  cond.Timezone,
		Timestamp: s.now().Format(time.RFC3339),
		Unidades:  fmt.Sprintf("%s (%s)", unidades, simbolo),
	}
}
