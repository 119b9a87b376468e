package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Scale      float32       `yaml:"scale"`
	ForceUnlit bool          `yaml:"unlit"`
	Texture    TextureConfig `yaml:"texture"`
	Names      NamesConfig   `yaml:"names"`
	Logging    LoggingConfig `yaml:"logging"`
}

type TextureConfig struct {
	ReCompress      bool    `yaml:"recompress"`
	ResolutionLimit int     `yaml:"resolution_limit"` // 0: unlimited
	Scale           float32 `yaml:"scale"`
	Dir             string  `yaml:"dir"` // default: input directory
}

type NamesConfig struct {
	Encoding string `yaml:"encoding"` // e.g. shift_jis. empty: utf-8
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Scale:   1,
		Texture: TextureConfig{Scale: 1},
		Logging: LoggingConfig{Level: "info"},
	}
}

type flags struct {
	config   string
	debug    bool
	dump     bool
	full     bool
	watch    bool
	scale    float64
	unlit    bool
	texLimit int
	encoding string
	logFile  string
	args     []string
}

func parseFlags(args []string) (*flags, error) {
	fs := flag.NewFlagSet("fbxconv", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: fbxconv [options] input.fbx [output.glb]\n")
		fs.PrintDefaults()
	}
	f := &flags{}
	fs.StringVar(&f.config, "config", "", "config file (yaml)")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&f.dump, "dump", false, "print the node tree and object graph instead of converting")
	fs.BoolVar(&f.full, "full", false, "do not elide long arrays in -dump")
	fs.BoolVar(&f.watch, "watch", false, "convert again whenever the input changes")
	fs.Float64Var(&f.scale, "scale", 0, "0: from config")
	fs.BoolVar(&f.unlit, "gltfunlit", false, "unlit all materials")
	fs.IntVar(&f.texLimit, "texlimit", 0, "texture resolution limit")
	fs.StringVar(&f.encoding, "encoding", "", "encoding of object names (e.g. shift_jis)")
	fs.StringVar(&f.logFile, "log", "", "log file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.args = fs.Args()
	if len(f.args) == 0 {
		fs.Usage()
		return nil, flag.ErrHelp
	}
	return f, nil
}

// LoadConfig applies defaults < file < flags.
func LoadConfig(f *flags) (*Config, error) {
	cfg := DefaultConfig()
	if f.config != "" {
		data, err := os.ReadFile(f.config)
		if err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", f.config, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", f.config, err)
		}
	}
	if f.debug {
		cfg.Logging.Level = "debug"
	}
	if f.scale != 0 {
		cfg.Scale = float32(f.scale)
	}
	if f.unlit {
		cfg.ForceUnlit = true
	}
	if f.texLimit > 0 {
		cfg.Texture.ResolutionLimit = f.texLimit
	}
	if f.encoding != "" {
		cfg.Names.Encoding = f.encoding
	}
	if f.logFile != "" {
		cfg.Logging.LogFile = f.logFile
	}
	return cfg, nil
}

// NameEncoding returns the configured name encoding, or nil for utf-8.
func (c *Config) NameEncoding() (encoding.Encoding, error) {
	if c.Names.Encoding == "" {
		return nil, nil
	}
	return htmlindex.Get(c.Names.Encoding)
}
