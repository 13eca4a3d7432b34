package main

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/weberc2/nachofs/pkg/filesys"
	. "github.com/weberc2/nachofs/pkg/types"
)

func TestLoadConfig(t *testing.T) {
	for _, testCase := range []struct {
		name   string
		file   string
		env    map[string]string
		wanted func(c *Config)
	}{
		{
			name:   "defaults",
			wanted: func(c *Config) {},
		},
		{
			name: "file",
			file: "backend: postgres\ndiskName: lab\nnumSectors: 2048\n",
			wanted: func(c *Config) {
				c.Backend = BackendPostgres
				c.DiskName = "lab"
				c.NumSectors = 2048
			},
		},
		{
			name: "env-overrides-file",
			file: "image: from-file\ncacheSectors: 4\n",
			env: map[string]string{
				"NACHOFS_IMAGE":       "from-env",
				"NACHOFS_SECTOR_SIZE": "256",
			},
			wanted: func(c *Config) {
				c.Image = "from-env"
				c.CacheSectors = 4
				c.SectorSize = 256
			},
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nachofs.yaml")
			if testCase.file != "" {
				if err := ioutil.WriteFile(
					path,
					[]byte(testCase.file),
					0644,
				); err != nil {
					t.Fatalf("writing config file: %v", err)
				}
			}
			t.Setenv("NACHOFS_CONFIG_FILE", path)
			for k, v := range testCase.env {
				t.Setenv(k, v)
			}

			found, err := LoadConfig()
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			wanted := DefaultConfig()
			testCase.wanted(&wanted)
			if diff := cmp.Diff(&wanted, found); diff != "" {
				t.Fatalf("unexpected config (-wanted +found):\n%s", diff)
			}
		})
	}
}

func TestLoadConfig_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nachofs.yaml")
	if err := ioutil.WriteFile(path, []byte("bogus: 1\n"), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("NACHOFS_CONFIG_FILE", path)
	if _, err := LoadConfig(); err == nil {
		t.Fatal("wanted error; found `nil`")
	}
}

func TestConfig_Validate(t *testing.T) {
	for _, testCase := range []struct {
		name   string
		modify func(c *Config)
		wanted string
	}{
		{name: "defaults", modify: func(c *Config) {}},
		{
			name:   "missing-addr",
			modify: func(c *Config) { c.Addr = "" },
			wanted: "addr / NACHOFS_ADDR",
		},
		{
			name:   "unknown-backend",
			modify: func(c *Config) { c.Backend = "floppy" },
			wanted: "backend / NACHOFS_BACKEND",
		},
		{
			name: "missing-image",
			modify: func(c *Config) {
				c.Image = ""
			},
			wanted: "image / NACHOFS_IMAGE",
		},
		{
			name:   "memory-needs-no-image",
			modify: func(c *Config) { c.Backend = BackendMemory; c.Image = "" },
		},
		{
			name:   "bad-geometry",
			modify: func(c *Config) { c.SectorSize = 10 },
			wanted: string(InvalidGeometryErr),
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			c := DefaultConfig()
			testCase.modify(&c)
			err := c.Validate()
			if testCase.wanted == "" {
				if err != nil {
					t.Fatalf("unexpected err: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), testCase.wanted) {
				t.Fatalf("wanted `%s`; found `%v`", testCase.wanted, err)
			}
		})
	}
}

func TestCopyInOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "DISK_0")
	t.Setenv("NACHOFS_CONFIG_FILE", filepath.Join(t.TempDir(), "none.yaml"))
	t.Setenv("NACHOFS_IMAGE", path)

	c, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	d, closeDisk, err := c.OpenDisk(true)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer closeDisk()

	fs, err := filesys.Format(d)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	host := filepath.Join(t.TempDir(), "hello.txt")
	if err := ioutil.WriteFile(host, []byte("hello, disk\n"), 0644); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := copyIn(fs, host, "/hello"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	var out strings.Builder
	if err := copyOut(fs, "/hello", &out); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.String() != "hello, disk\n" {
		t.Fatalf("wanted `hello, disk\\n`; found `%q`", out.String())
	}
}
