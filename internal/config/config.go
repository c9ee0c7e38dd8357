package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Nullability policies for parameters without nullability metadata
const (
	NullabilityRequired = "required"
	NullabilityNullable = "nullable"
)

// Config represents the application configuration
type Config struct {
	Project   ProjectConfig   `mapstructure:"project"`
	Classpath ClasspathConfig `mapstructure:"classpath"`
	Mounts    []MountConfig   `mapstructure:"mounts"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Output    OutputConfig    `mapstructure:"output"`
}

// ProjectConfig holds project-specific settings
type ProjectConfig struct {
	Name     string   `mapstructure:"name"`     // Project name shown in reports
	Version  string   `mapstructure:"version"`  // Project version shown in reports
	Encoding []string `mapstructure:"encoding"` // Manifest encoding hints (e.g., ["utf-8", "euc-kr"])
}

// ClasspathConfig holds the locations of compiled classes
type ClasspathConfig struct {
	Entries []string `mapstructure:"entries"` // Class directories, jar files, or directories of jars
	Exclude []string `mapstructure:"exclude"` // Glob patterns excluded when scanning directories for jars
}

// MountConfig is a controller registration listed directly in the config file
type MountConfig struct {
	Type   string `mapstructure:"type"`   // Fully qualified controller type
	Prefix string `mapstructure:"prefix"` // Optional path prefix
}

// AnalysisConfig holds analysis behavior settings
type AnalysisConfig struct {
	Manifest           string   `mapstructure:"manifest"`            // Mount manifest file ("" when mounts come from config only)
	Parallelism        int      `mapstructure:"parallelism"`         // Mounts processed concurrently
	MissingNullability string   `mapstructure:"missing_nullability"` // "required" or "nullable"
	ExcludeControllers []string `mapstructure:"exclude_controllers"` // Controller simple-name patterns to skip
}

// OutputConfig holds output settings
type OutputConfig struct {
	Dir         string   `mapstructure:"dir"`          // Output directory
	FileName    string   `mapstructure:"file_name"`    // Output file name (without extension)
	Formats     []string `mapstructure:"formats"`      // Report formats
	MetricsFile string   `mapstructure:"metrics_file"` // Prometheus text file ("" disables)
}

// Load reads the configuration from a file or uses defaults
// If configPath is empty, it looks for "config.yaml" in the current directory
// If the file doesn't exist, it uses sensible defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set sensible defaults
	setDefaults(v)

	// Determine config file to use
	if configPath == "" {
		configPath = "config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("ROUTE_RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore error if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) || strings.Contains(err.Error(), "no such file") ||
			strings.Contains(err.Error(), "cannot find") {
			fmt.Println("==========================================")
			fmt.Println("Config file not found. Using defaults:")
			fmt.Println("  Classpath: ./build/classes")
			fmt.Println("  Output:    ./output")
			fmt.Println("==========================================")
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		fmt.Printf("Loaded config from: %s\n", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Analysis.MissingNullability = strings.ToLower(strings.TrimSpace(cfg.Analysis.MissingNullability))
	for i, f := range cfg.Output.Formats {
		cfg.Output.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}

	if err := cfg.normalizePaths(filepath.Dir(configPath)); err != nil {
		return nil, err
	}

	if err := cfg.EnsureOutputDir(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults configures sensible default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("project.name", "")
	v.SetDefault("project.version", "")
	v.SetDefault("project.encoding", []string{"utf-8", "euc-kr"})

	v.SetDefault("classpath.entries", []string{"./build/classes"})
	v.SetDefault("classpath.exclude", []string{
		"**/test/**",
		"**/tests/**",
		"**/.git/**",
		"**/node_modules/**",
	})

	v.SetDefault("analysis.manifest", "")
	v.SetDefault("analysis.parallelism", 1)
	v.SetDefault("analysis.missing_nullability", NullabilityRequired)
	v.SetDefault("analysis.exclude_controllers", []string{})

	v.SetDefault("output.dir", "./output")
	v.SetDefault("output.file_name", "route-recon-report")
	v.SetDefault("output.formats", []string{"excel", "openapi"})
	v.SetDefault("output.metrics_file", "")
}

// normalizePaths converts relative paths to absolute paths. The manifest is
// resolved against the config file's directory, everything else against the
// working directory.
func (c *Config) normalizePaths(configDir string) error {
	for i, entry := range c.Classpath.Entries {
		abs, err := filepath.Abs(entry)
		if err != nil {
			return fmt.Errorf("failed to resolve classpath entry %q: %w", entry, err)
		}
		c.Classpath.Entries[i] = abs
	}

	if c.Analysis.Manifest != "" && !filepath.IsAbs(c.Analysis.Manifest) {
		if _, err := os.Stat(c.Analysis.Manifest); err != nil {
			c.Analysis.Manifest = filepath.Join(configDir, c.Analysis.Manifest)
		}
		abs, err := filepath.Abs(c.Analysis.Manifest)
		if err != nil {
			return fmt.Errorf("failed to resolve analysis.manifest: %w", err)
		}
		c.Analysis.Manifest = abs
	}

	absOutput, err := filepath.Abs(c.Output.Dir)
	if err != nil {
		return fmt.Errorf("failed to resolve output.dir: %w", err)
	}
	c.Output.Dir = absOutput

	if c.Output.MetricsFile != "" && !filepath.IsAbs(c.Output.MetricsFile) {
		c.Output.MetricsFile = filepath.Join(c.Output.Dir, c.Output.MetricsFile)
	}

	return nil
}

// EnsureOutputDir creates the output directory if it doesn't exist
func (c *Config) EnsureOutputDir() error {
	if err := os.MkdirAll(c.Output.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// IsExcludedController checks if a controller simple name matches any exclude pattern
func (c *Config) IsExcludedController(simpleName string) bool {
	for _, pattern := range c.Analysis.ExcludeControllers {
		if matchPattern(simpleName, pattern) {
			return true
		}
	}
	return false
}

// ShouldExclude checks if a classpath path should be excluded based on classpath.exclude
func (c *Config) ShouldExclude(filePath string) bool {
	normalizedPath := filepath.ToSlash(filePath)

	for _, pattern := range c.Classpath.Exclude {
		if matchPathPattern(normalizedPath, pattern) {
			return true
		}
	}
	return false
}

// NullableByDefault reports whether parameters without nullability metadata are nullable
func (c *Config) NullableByDefault() bool {
	return c.Analysis.MissingNullability == NullabilityNullable
}

// GetOutputPath returns the full path for an output file with the given extension
func (c *Config) GetOutputPath(ext string) string {
	return filepath.Join(c.Output.Dir, c.Output.FileName+ext)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Classpath.Entries) == 0 {
		return fmt.Errorf("classpath.entries must contain at least one entry")
	}
	for _, entry := range c.Classpath.Entries {
		if _, err := os.Stat(entry); os.IsNotExist(err) {
			return fmt.Errorf("classpath entry does not exist: %s", entry)
		}
	}

	if c.Analysis.Manifest == "" && len(c.Mounts) == 0 {
		return fmt.Errorf("no mounts: set analysis.manifest or list mounts in the config file")
	}
	for i, m := range c.Mounts {
		if strings.TrimSpace(m.Type) == "" {
			return fmt.Errorf("mounts[%d]: type cannot be empty", i)
		}
	}

	switch c.Analysis.MissingNullability {
	case NullabilityRequired, NullabilityNullable:
	default:
		return fmt.Errorf("analysis.missing_nullability must be %q or %q, got %q",
			NullabilityRequired, NullabilityNullable, c.Analysis.MissingNullability)
	}

	if c.Analysis.Parallelism < 1 {
		return fmt.Errorf("analysis.parallelism must be at least 1, got %d", c.Analysis.Parallelism)
	}

	if len(c.Project.Encoding) == 0 {
		return fmt.Errorf("project.encoding must contain at least one encoding")
	}

	if c.Output.FileName == "" {
		return fmt.Errorf("output.file_name cannot be empty")
	}

	return nil
}

// matchPattern checks if a string matches a simple glob pattern
// Supports only '*' wildcard at the beginning or end
func matchPattern(str, pattern string) bool {
	if pattern == "*" {
		return true
	}

	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		middle := pattern[1 : len(pattern)-1]
		return strings.Contains(str, middle)
	} else if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(str, pattern[1:])
	} else if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(str, pattern[:len(pattern)-1])
	}

	return str == pattern
}

// matchPathPattern checks if a path matches a glob pattern
// Supports ** for recursive directory matching
func matchPathPattern(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)
	path = filepath.ToSlash(path)

	if strings.Contains(pattern, "**") {
		parts := strings.Split(pattern, "**")
		if len(parts) == 2 {
			prefix := strings.Trim(parts[0], "/")
			suffix := strings.Trim(parts[1], "/")

			hasPrefix := true
			if prefix != "" {
				hasPrefix = strings.HasPrefix(path, prefix+"/") || strings.Contains(path, "/"+prefix+"/")
			}

			hasSuffix := true
			if suffix != "" {
				hasSuffix = strings.Contains(path, "/"+suffix+"/") ||
					strings.HasSuffix(path, "/"+suffix) ||
					strings.HasPrefix(path, suffix+"/")
			}

			return hasPrefix && hasSuffix
		}
	}

	if ok, err := filepath.Match(pattern, filepath.Base(path)); err == nil && ok {
		return true
	}
	cleanPattern := strings.Trim(pattern, "*")
	return cleanPattern != "" && strings.Contains(path, cleanPattern)
}

// Print displays the current configuration
func (c *Config) Print() {
	fmt.Println("=== Route Recon Configuration ===")
	fmt.Printf("Project:          %s %s\n", c.Project.Name, c.Project.Version)
	fmt.Printf("Encoding Hints:   %v\n", c.Project.Encoding)
	fmt.Printf("Classpath:        %v\n", c.Classpath.Entries)
	fmt.Printf("Exclude:          %v\n", c.Classpath.Exclude)
	fmt.Printf("Manifest:         %s\n", c.Analysis.Manifest)
	fmt.Printf("Config Mounts:    %d\n", len(c.Mounts))
	fmt.Printf("Parallelism:      %d\n", c.Analysis.Parallelism)
	fmt.Printf("Nullability:      %s\n", c.Analysis.MissingNullability)
	fmt.Printf("Output Directory: %s\n", c.Output.Dir)
	fmt.Printf("Output Formats:   %v\n", c.Output.Formats)
	if c.Output.MetricsFile != "" {
		fmt.Printf("Metrics File:     %s\n", c.Output.MetricsFile)
	}
	fmt.Println("=================================")
}
