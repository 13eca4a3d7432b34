// Package server exposes the kernel's system calls over HTTP.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	pz "github.com/weberc2/httpeasy"
	"github.com/weberc2/nachofs/pkg/disk"
	"github.com/weberc2/nachofs/pkg/kernel"
	. "github.com/weberc2/nachofs/pkg/types"
)

type FileService struct {
	Kernel *kernel.Kernel
	Disk   *disk.Disk
}

type logging struct {
	Message   string `json:"message"`
	RequestID string `json:"requestID"`
	Path      string `json:"path,omitempty"`
	Handle    int    `json:"handle,omitempty"`
	Error     string `json:"error,omitempty"`
}

func newLogging(message string) *logging {
	return &logging{Message: message, RequestID: uuid.NewString()}
}

type CreateRequest struct {
	Path string `json:"path"`
	Size Byte   `json:"size"`
}

type PathResponse struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

type HandleResponse struct {
	Handle kernel.Handle `json:"handle"`
}

type WriteResponse struct {
	Written int `json:"written"`
}

type StatsResponse struct {
	FreeSectors Sector     `json:"freeSectors"`
	Geometry    Geometry   `json:"geometry"`
	Disk        disk.Stats `json:"disk"`
}

func (fs *FileService) CreateFileRoute() pz.Route {
	return pz.Route{
		Method: "POST",
		Path:   "/api/files",
		Handler: func(r pz.Request) pz.Response {
			var req CreateRequest
			if err := r.JSON(&req); err != nil {
				return badRequest("malformed `CreateRequest` JSON", err)
			}
			l := newLogging("created file")
			l.Path = req.Path
			if err := fs.Kernel.Create(req.Path, req.Size); err != nil {
				return handleError("creating file", err)
			}
			return pz.Created(
				pz.JSON(&PathResponse{Message: "created file", Path: req.Path}),
				l,
			)
		},
	}
}

func (fs *FileService) CreateDirectoryRoute() pz.Route {
	return pz.Route{
		Method: "POST",
		Path:   "/api/directories",
		Handler: func(r pz.Request) pz.Response {
			var req CreateRequest
			if err := r.JSON(&req); err != nil {
				return badRequest("malformed `CreateRequest` JSON", err)
			}
			l := newLogging("created directory")
			l.Path = req.Path
			if err := fs.Kernel.CreateDirectory(req.Path); err != nil {
				return handleError("creating directory", err)
			}
			return pz.Created(
				pz.JSON(&PathResponse{
					Message: "created directory",
					Path:    req.Path,
				}),
				l,
			)
		},
	}
}

func (fs *FileService) DeleteFileRoute() pz.Route {
	return pz.Route{
		Method: "DELETE",
		Path:   "/api/files",
		Handler: func(r pz.Request) pz.Response {
			path := r.URL.Query().Get("path")
			if path == "" {
				return badRequest("missing `path` query parameter", nil)
			}
			if err := fs.Kernel.Remove(path); err != nil {
				return handleError("removing file", err)
			}
			l := newLogging("removed file")
			l.Path = path
			return pz.Ok(
				pz.JSON(&PathResponse{Message: "removed file", Path: path}),
				l,
			)
		},
	}
}

func (fs *FileService) DeleteDirectoryRoute() pz.Route {
	return pz.Route{
		Method: "DELETE",
		Path:   "/api/directories",
		Handler: func(r pz.Request) pz.Response {
			path := r.URL.Query().Get("path")
			if path == "" {
				return badRequest("missing `path` query parameter", nil)
			}
			if err := fs.Kernel.RecurRemoveDirectory(path); err != nil {
				return handleError("removing directory", err)
			}
			l := newLogging("removed directory")
			l.Path = path
			return pz.Ok(
				pz.JSON(&PathResponse{
					Message: "removed directory",
					Path:    path,
				}),
				l,
			)
		},
	}
}

// ListDirectoryRoute renders a directory as text, the way the kernel lists
// it, or as JSON entries with `format=json`.
func (fs *FileService) ListDirectoryRoute() pz.Route {
	return pz.Route{
		Method: "GET",
		Path:   "/api/directories",
		Handler: func(r pz.Request) pz.Response {
			query := r.URL.Query()
			path := query.Get("path")
			if path == "" {
				path = "/"
			}
			l := newLogging("listed directory")
			l.Path = path

			if query.Get("format") == "json" {
				entries, err := fs.Kernel.ReadDirectory(path)
				if err != nil {
					return handleError("reading directory", err)
				}
				return pz.Ok(pz.JSON(entries), l)
			}

			var buf bytes.Buffer
			var err error
			if query.Get("recursive") == "true" {
				err = fs.Kernel.RecurListDirectory(&buf, path)
			} else {
				err = fs.Kernel.ListDirectory(&buf, path)
			}
			if err != nil {
				return handleError("listing directory", err)
			}
			return pz.Ok(pz.String(buf.String()), l)
		},
	}
}

func (fs *FileService) OpenRoute() pz.Route {
	return pz.Route{
		Method: "POST",
		Path:   "/api/handles",
		Handler: func(r pz.Request) pz.Response {
			var req CreateRequest
			if err := r.JSON(&req); err != nil {
				return badRequest("malformed open request JSON", err)
			}
			handle, err := fs.Kernel.Open(req.Path)
			if err != nil {
				return handleError("opening file", err)
			}
			l := newLogging("opened file")
			l.Path = req.Path
			l.Handle = int(handle)
			return pz.Created(pz.JSON(&HandleResponse{Handle: handle}), l)
		},
	}
}

func (fs *FileService) ReadRoute() pz.Route {
	return pz.Route{
		Method: "GET",
		Path:   "/api/handles/{handle}",
		Handler: func(r pz.Request) pz.Response {
			handle, err := parseHandle(r)
			if err != nil {
				return badRequest("parsing handle", err)
			}
			size, err := strconv.Atoi(r.URL.Query().Get("size"))
			if err != nil {
				return badRequest("parsing `size` query parameter", err)
			}
			p, err := fs.Kernel.Read(handle, size)
			if err != nil {
				return handleError("reading file", err)
			}
			l := newLogging("read file")
			l.Handle = int(handle)
			return pz.Ok(pz.String(string(p)), l)
		},
	}
}

func (fs *FileService) WriteRoute() pz.Route {
	return pz.Route{
		Method: "PUT",
		Path:   "/api/handles/{handle}",
		Handler: func(r pz.Request) pz.Response {
			handle, err := parseHandle(r)
			if err != nil {
				return badRequest("parsing handle", err)
			}
			p, err := io.ReadAll(r.Body)
			if err != nil {
				return badRequest("reading request body", err)
			}
			n, err := fs.Kernel.Write(handle, p)
			if err != nil {
				return handleError("writing file", err)
			}
			l := newLogging("wrote file")
			l.Handle = int(handle)
			return pz.Ok(pz.JSON(&WriteResponse{Written: n}), l)
		},
	}
}

func (fs *FileService) CloseRoute() pz.Route {
	return pz.Route{
		Method: "DELETE",
		Path:   "/api/handles/{handle}",
		Handler: func(r pz.Request) pz.Response {
			handle, err := parseHandle(r)
			if err != nil {
				return badRequest("parsing handle", err)
			}
			if err := fs.Kernel.Close(handle); err != nil {
				return handleError("closing file", err)
			}
			l := newLogging("closed file")
			l.Handle = int(handle)
			return pz.Ok(pz.JSON(&HandleResponse{Handle: handle}), l)
		},
	}
}

func (fs *FileService) StatsRoute() pz.Route {
	return pz.Route{
		Method: "GET",
		Path:   "/api/stats",
		Handler: func(r pz.Request) pz.Response {
			free, err := fs.Kernel.FreeSectors()
			if err != nil {
				return handleError("counting free sectors", err)
			}
			return pz.Ok(pz.JSON(&StatsResponse{
				FreeSectors: free,
				Geometry:    fs.Disk.Geometry(),
				Disk:        fs.Disk.Stats(),
			}))
		},
	}
}

func (fs *FileService) Routes() []pz.Route {
	return []pz.Route{
		fs.CreateFileRoute(),
		fs.CreateDirectoryRoute(),
		fs.DeleteFileRoute(),
		fs.DeleteDirectoryRoute(),
		fs.ListDirectoryRoute(),
		fs.OpenRoute(),
		fs.ReadRoute(),
		fs.WriteRoute(),
		fs.CloseRoute(),
		fs.StatsRoute(),
	}
}

func parseHandle(r pz.Request) (kernel.Handle, error) {
	handle, err := strconv.Atoi(r.Vars["handle"])
	if err != nil {
		return 0, fmt.Errorf("parsing handle `%s`: %w", r.Vars["handle"], err)
	}
	return kernel.Handle(handle), nil
}

func badRequest(message string, err error) pz.Response {
	l := newLogging(message)
	if err != nil {
		l.Error = err.Error()
	}
	return pz.BadRequest(pz.String(message), l)
}

// handleError responds with the status of the first file system error in
// `err`'s chain, or 500 if there is none.
func handleError(message string, err error) pz.Response {
	var httpErr *pz.HTTPError
	if errors.As(err, &httpErr) {
		return pz.HandleError(fmt.Sprintf("%s: %v", message, err), httpErr)
	}
	return pz.HandleError(message, err)
}
