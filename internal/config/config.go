package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration lets TOML files carry durations as strings like "20s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type ComponentConfig struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Language    string `toml:"language"`
}

type ServerConfig struct {
	Port       string `toml:"port"`
	ServiceURL string `toml:"service_url"`
}

type KnowledgeGraphConfig struct {
	Endpoint     string   `toml:"endpoint"`
	UserAgent    string   `toml:"user_agent"`
	QueryTimeout Duration `toml:"query_timeout"`
	MaxRetries   int      `toml:"max_retries"`
}

type RegionConfig struct {
	StateConcepts       []string `toml:"state_concepts"`
	DistrictConcepts    []string `toml:"district_concepts"`
	StateKeyProperty    string   `toml:"state_key_property"`
	DistrictKeyProperty string   `toml:"district_key_property"`
	LocatedInProperty   string   `toml:"located_in_property"`
	StateType           string   `toml:"state_type"`
	DistrictType        string   `toml:"district_type"`
}

type StoreConfig struct {
	QueryTimeout Duration `toml:"query_timeout"`
	MaxRetries   int      `toml:"max_retries"`
}

type ConcurrencyConfig struct {
	Entities int `toml:"entities"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type RegistrationConfig struct {
	AdminURL string   `toml:"admin_url"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	Interval Duration `toml:"interval"`
}

type TelemetryConfig struct {
	Exporter    string  `toml:"exporter"`
	Endpoint    string  `toml:"endpoint"`
	SampleRatio float64 `toml:"sample_ratio"`
	Environment string  `toml:"environment"`
}

type Config struct {
	Component      ComponentConfig      `toml:"component"`
	Server         ServerConfig         `toml:"server"`
	KnowledgeGraph KnowledgeGraphConfig `toml:"knowledge_graph"`
	Region         RegionConfig         `toml:"region"`
	Store          StoreConfig          `toml:"store"`
	Concurrency    ConcurrencyConfig    `toml:"concurrency"`
	Memgraph       MemgraphConfig       `toml:"memgraph"`
	Registration   RegistrationConfig   `toml:"registration"`
	Telemetry      TelemetryConfig      `toml:"telemetry"`
}

// Default returns the configuration used for German federal states and
// districts on Wikidata.
func Default() *Config {
	return &Config{
		Component: ComponentConfig{
			Name:        "location-to-ger-district",
			Description: "Resolves recognized locations to German federal states and districts",
			Language:    "de",
		},
		Server: ServerConfig{
			Port: "8080",
		},
		KnowledgeGraph: KnowledgeGraphConfig{
			Endpoint:     "https://query.wikidata.org/sparql",
			UserAgent:    "districtlinker/1.0 (qanary component)",
			QueryTimeout: Duration{20 * time.Second},
			MaxRetries:   2,
		},
		Region: RegionConfig{
			StateConcepts:       []string{"Q1221156"},
			DistrictConcepts:    []string{"Q106658", "Q22865"},
			StateKeyProperty:    "P1388",
			DistrictKeyProperty: "P440",
			LocatedInProperty:   "P131",
			StateType:           "http://dbpedia.org/resource/States_of_Germany",
			DistrictType:        "http://dbpedia.org/resource/Districts_of_Germany",
		},
		Store: StoreConfig{
			QueryTimeout: Duration{10 * time.Second},
			MaxRetries:   1,
		},
		Concurrency: ConcurrencyConfig{
			Entities: 4,
		},
		Registration: RegistrationConfig{
			Interval: Duration{30 * time.Second},
		},
		Telemetry: TelemetryConfig{
			Exporter:    "none",
			SampleRatio: 1.0,
		},
	}
}

// Load reads a TOML file on top of Default. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides file values with environment variables when present.
func (c *Config) ApplyEnv() error {
	setString(&c.Component.Name, "COMPONENT_NAME")
	setString(&c.Component.Description, "COMPONENT_DESCRIPTION")
	setString(&c.Component.Language, "COMPONENT_LANGUAGE")
	setString(&c.Server.Port, "SERVER_PORT")
	setString(&c.Server.ServiceURL, "SERVICE_URL")
	setString(&c.KnowledgeGraph.Endpoint, "KNOWLEDGE_GRAPH_ENDPOINT")
	setString(&c.KnowledgeGraph.UserAgent, "KNOWLEDGE_GRAPH_USER_AGENT")
	setString(&c.Memgraph.URI, "MEMGRAPH_URI")
	setString(&c.Memgraph.User, "MEMGRAPH_USER")
	setString(&c.Memgraph.Password, "MEMGRAPH_PASSWORD")
	setString(&c.Registration.AdminURL, "SPRING_BOOT_ADMIN_URL")
	setString(&c.Registration.Username, "SPRING_BOOT_ADMIN_USERNAME")
	setString(&c.Registration.Password, "SPRING_BOOT_ADMIN_PASSWORD")
	setString(&c.Telemetry.Exporter, "OTEL_EXPORTER")
	setString(&c.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&c.Telemetry.Environment, "APP_ENV")

	if v := strings.TrimSpace(os.Getenv("KNOWLEDGE_GRAPH_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("KNOWLEDGE_GRAPH_TIMEOUT: %w", err)
		}
		c.KnowledgeGraph.QueryTimeout = Duration{d}
	}
	if v := strings.TrimSpace(os.Getenv("ENTITY_CONCURRENCY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ENTITY_CONCURRENCY: %w", err)
		}
		c.Concurrency.Entities = n
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Component.Name) == "" {
		return fmt.Errorf("component.name is required")
	}
	if strings.TrimSpace(c.KnowledgeGraph.Endpoint) == "" {
		return fmt.Errorf("knowledge_graph.endpoint is required")
	}
	if c.KnowledgeGraph.QueryTimeout.Duration <= 0 {
		return fmt.Errorf("knowledge_graph.query_timeout must be positive")
	}
	if c.Store.QueryTimeout.Duration <= 0 {
		return fmt.Errorf("store.query_timeout must be positive")
	}
	if len(c.Region.StateConcepts) == 0 || len(c.Region.DistrictConcepts) == 0 {
		return fmt.Errorf("region.state_concepts and region.district_concepts must not be empty")
	}
	if c.Region.StateKeyProperty == "" || c.Region.DistrictKeyProperty == "" || c.Region.LocatedInProperty == "" {
		return fmt.Errorf("region key and location properties are required")
	}
	if c.Concurrency.Entities < 1 {
		return fmt.Errorf("concurrency.entities must be at least 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
