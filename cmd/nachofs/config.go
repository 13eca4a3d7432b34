package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/weberc2/nachofs/pkg/disk"
	"github.com/weberc2/nachofs/pkg/pgdisk"
	"github.com/weberc2/nachofs/pkg/snapshot"
	. "github.com/weberc2/nachofs/pkg/types"
	"gopkg.in/yaml.v2"
)

const (
	envVarPrefix = "NACHOFS"
	appName      = "nachofs"

	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	Addr           string `envconfig:"ADDR"            yaml:"addr"`
	Backend        string `envconfig:"BACKEND"         yaml:"backend"`
	Image          string `envconfig:"IMAGE"           yaml:"image"`
	DiskName       string `envconfig:"DISK_NAME"       yaml:"diskName"`
	SectorSize     Byte   `envconfig:"SECTOR_SIZE"     yaml:"sectorSize"`
	NumSectors     Sector `envconfig:"NUM_SECTORS"     yaml:"numSectors"`
	CacheSectors   int    `envconfig:"CACHE_SECTORS"   yaml:"cacheSectors"`
	Bucket         string `envconfig:"BUCKET"          yaml:"bucket"`
	Region         string `envconfig:"REGION"          yaml:"region"`
	SnapshotPrefix string `envconfig:"SNAPSHOT_PREFIX" yaml:"snapshotPrefix"`
}

func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:8080",
		Backend:        BackendFile,
		Image:          "DISK_0",
		DiskName:       "DISK_0",
		SectorSize:     DefaultSectorSize,
		NumSectors:     DefaultNumSectors,
		CacheSectors:   32,
		SnapshotPrefix: "snapshots/",
	}
}

// LoadConfig layers the config file (if any) and then the environment over
// the defaults.
func LoadConfig() (*Config, error) {
	configFile := os.Getenv(envVarPrefix + "_CONFIG_FILE")
	if configFile == "" {
		home, _ := os.UserHomeDir()
		configFile = filepath.Join(home, ".config", appName+".yaml")
	}

	c := DefaultConfig()
	data, err := ioutil.ReadFile(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshaling config file: %w", err)
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	return &c, nil
}

func (c *Config) Validate() error {
	if y, e := func() (string, string) {
		if c.Addr == "" {
			return "addr", "ADDR"
		}
		switch c.Backend {
		case BackendFile:
			if c.Image == "" {
				return "image", "IMAGE"
			}
		case BackendPostgres:
			if c.DiskName == "" {
				return "diskName", "DISK_NAME"
			}
		case BackendMemory:
		default:
			return "backend", "BACKEND"
		}
		return "", ""
	}(); y != "" {
		return fmt.Errorf(
			"missing required configuration: %s / %s_%s",
			y,
			envVarPrefix,
			e,
		)
	}
	if err := c.Geometry().Validate(); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}
	return nil
}

func (c *Config) Geometry() Geometry {
	return Geometry{SectorSize: c.SectorSize, NumSectors: c.NumSectors}
}

// OpenDisk opens the configured backend. With `create` set, a file backend
// gets a fresh image and a postgres backend has its sectors cleared. The
// returned function releases the backend.
func (c *Config) OpenDisk(create bool) (*disk.Disk, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	geometry := c.Geometry()

	var store disk.SectorStore
	closer := func() error { return nil }
	switch c.Backend {
	case BackendMemory:
		store = disk.NewVolumeStore(
			disk.NewBuffer(geometry.DiskSize()),
			geometry.SectorSize,
		)
	case BackendFile:
		open := disk.OpenImage
		if create {
			open = disk.CreateImage
		}
		image, err := open(c.Image, geometry)
		if err != nil {
			return nil, nil, err
		}
		store = image.Store()
		closer = func() error {
			if err := image.Sync(); err != nil {
				image.Close()
				return err
			}
			return image.Close()
		}
	case BackendPostgres:
		pg, err := pgdisk.OpenEnv(c.DiskName)
		if err != nil {
			return nil, nil, err
		}
		if create {
			if err := pg.ClearDisk(); err != nil {
				pg.Close()
				return nil, nil, err
			}
		}
		store = pg
		closer = pg.Close
	}

	if c.CacheSectors > 0 {
		store = disk.NewCachingStore(store, c.CacheSectors, geometry.SectorSize)
	}
	log.Printf(
		"opened disk: backend=%s sectors=%d sectorSize=%d cache=%d",
		c.Backend,
		geometry.NumSectors,
		geometry.SectorSize,
		c.CacheSectors,
	)
	return disk.New(store, geometry), closer, nil
}

func (c *Config) Snapshotter() (*snapshot.Snapshotter, error) {
	if c.Bucket == "" {
		return nil, fmt.Errorf(
			"missing required configuration: bucket / %s_BUCKET",
			envVarPrefix,
		)
	}
	store, err := snapshot.NewS3ObjectStore(c.Region)
	if err != nil {
		return nil, err
	}
	return snapshot.New(store, c.Bucket, c.SnapshotPrefix), nil
}
