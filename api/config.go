package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/agstack/OpenAgri-ReportingService/internal/calendar"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Config struct {
	Port       string `validate:"required,numeric"`
	LogLevel   string `validate:"oneof=debug info warn error"`
	PrettyLogs bool

	StoreDriver string `validate:"oneof=sqlite mongo"`
	SQLitePath  string `validate:"required_if=StoreDriver sqlite"`
	MongoURI    string `validate:"required_if=StoreDriver mongo"`
	MongoDB     string `validate:"required_if=StoreDriver mongo"`

	PDFDirectory string `validate:"required"`
	FontDir      string

	UsingGatekeeper     bool
	GatekeeperBaseURL   string `validate:"required,url"`
	FarmCalendarBaseURL string
	Endpoints           calendar.Endpoints

	GeocoderURL       string `validate:"required,url"`
	GeocoderUserAgent string `validate:"required"`

	JWTSecret   string
	Workers     int      `validate:"min=1"`
	QueueSize   int      `validate:"min=0"`
	CORSOrigins []string `validate:"min=1"`
}

// loadConfig reads the environment, after an optional .env file in the working directory.
func loadConfig() (Config, error) {
	_ = godotenv.Load()

	def := calendar.DefaultEndpoints()
	cfg := Config{
		Port:       getenv("PORT", "8080"),
		LogLevel:   strings.ToLower(getenv("LOG_LEVEL", "info")),
		PrettyLogs: getenvBool("PRETTY_LOGS", false),

		StoreDriver: getenv("STORE_DRIVER", "sqlite"),
		SQLitePath:  getenv("SQLITE_PATH", "reporting.db"),
		MongoURI:    getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getenv("MONGO_DB", "reporting"),

		PDFDirectory: getenv("PDF_DIRECTORY", "./pdf/"),
		FontDir:      getenv("PDF_FONT_DIR", ""),

		UsingGatekeeper:     getenvBool("REPORTING_USING_GATEKEEPER", false),
		GatekeeperBaseURL:   getenv("REPORTING_GATEKEEPER_BASE_URL", "http://localhost:8001/"),
		FarmCalendarBaseURL: getenv("REPORTING_FARMCALENDAR_BASE_URL", "api/proxy/farmcalendar/api/v1/"),
		Endpoints: calendar.Endpoints{
			Operations:    getenv("REPORTING_FARMCALENDAR_URLS_OPERATIONS", def.Operations),
			Observations:  getenv("REPORTING_FARMCALENDAR_URLS_OBSERVATIONS", def.Observations),
			ActivityTypes: getenv("REPORTING_FARMCALENDAR_URLS_ACTIVITY_TYPES", def.ActivityTypes),
			Machines:      getenv("REPORTING_FARMCALENDAR_URLS_MACHINES", def.Machines),
			Parcels:       getenv("REPORTING_FARMCALENDAR_URLS_PARCEL", def.Parcels),
			Farms:         getenv("REPORTING_FARMCALENDAR_URLS_FARM", def.Farms),
			Irrigations:   getenv("REPORTING_FARMCALENDAR_URLS_IRRIGATIONS", def.Irrigations),
			Animals:       getenv("REPORTING_FARMCALENDAR_URLS_ANIMALS", def.Animals),
			Materials:     getenv("REPORTING_FARMCALENDAR_URLS_MATERIALS", def.Materials),
		},

		GeocoderURL:       getenv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getenv("GEOCODER_USER_AGENT", "openagri-reporting"),

		JWTSecret:   getenv("JWT_SECRET", ""),
		Workers:     getenvInt("REPORT_WORKERS", 2),
		QueueSize:   getenvInt("REPORT_QUEUE_SIZE", 64),
		CORSOrigins: splitList(getenv("CORS_ORIGINS", "*")),
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// CalendarURL is the farm calendar API root behind the gatekeeper.
func (c Config) CalendarURL() string {
	return strings.TrimRight(c.GatekeeperBaseURL, "/") + "/" + strings.TrimLeft(c.FarmCalendarBaseURL, "/")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvBool(k string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
