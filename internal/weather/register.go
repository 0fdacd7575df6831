package weather

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/toolrpc/toolrpc/server"
)

// Register wires the clima tools and the configuration resource into the
// server.
func (s *Service) Register(srv *server.Server) error {
	tools := []*server.ToolBuilder{
		srv.Tool("consultar_clima_actual").
			Description("Consulta el clima actual para una ciudad específica").
			ValidateInput().
			ClosedInput().
			Handler(s.ConsultarClimaActual),

		srv.Tool("buscar_ciudades").
			Description("Busca ciudades que coincidan con un término de búsqueda").
			ValidateInput().
			ClosedInput().
			Handler(s.BuscarCiudades),

		srv.Tool("validar_configuracion").
			Description("Valida la configuración del servidor y API key").
			Handler(s.ValidarConfiguracion),
	}

	for _, b := range tools {
		if err := b.Err(); err != nil {
			return fmt.Errorf("registering clima tools: %w", err)
		}
	}

	srv.Resource("config://clima").
		Name("Configuración del servidor").
		Description("Configuración activa del servidor de clima, sin credenciales").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*server.ResourceContent, error) {
			cfg := map[string]any{
				"base_url":            s.cfg.BaseURL,
				"geo_url":             s.cfg.GeoURL,
				"timeout_segundos":    s.cfg.Timeout.Seconds(),
				"api_key_configurada": s.cfg.APIKeyValida(),
				"instance_id":         s.cfg.InstanceID,
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return nil, err
			}
			return &server.ResourceContent{
				URI:      uri,
				MimeType: "application/json",
				Text:     string(data),
			}, nil
		})

	return nil
}
