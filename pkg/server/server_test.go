package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	pz "github.com/weberc2/httpeasy"
	pztest "github.com/weberc2/httpeasy/testsupport"
	"github.com/weberc2/nachofs/pkg/disk"
	"github.com/weberc2/nachofs/pkg/filesys"
	"github.com/weberc2/nachofs/pkg/kernel"
	. "github.com/weberc2/nachofs/pkg/types"
)

func newTestService(t *testing.T) *FileService {
	t.Helper()
	d := disk.NewMemory(DefaultGeometry)
	fs, err := filesys.Format(d)
	if err != nil {
		t.Fatalf("formatting test disk: %v", err)
	}
	return &FileService{Kernel: kernel.New(fs), Disk: d}
}

func mustURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

func call(route pz.Route, r pz.Request) (pz.Response, string) {
	if r.URL == nil {
		r.URL = mustURL("http://localhost" + route.Path)
	}
	rsp := route.Handler(r)
	data, err := pztest.ReadAll(rsp.Data)
	if err != nil {
		panic(err)
	}
	return rsp, string(data)
}

func TestFileService_Create(t *testing.T) {
	for _, testCase := range []struct {
		name         string
		route        func(fs *FileService) pz.Route
		body         string
		wantedStatus int
	}{
		{
			name:         "file",
			route:        (*FileService).CreateFileRoute,
			body:         `{"path": "/a", "size": 10}`,
			wantedStatus: http.StatusCreated,
		},
		{
			name:         "directory",
			route:        (*FileService).CreateDirectoryRoute,
			body:         `{"path": "/d"}`,
			wantedStatus: http.StatusCreated,
		},
		{
			name:         "malformed",
			route:        (*FileService).CreateFileRoute,
			body:         `{`,
			wantedStatus: http.StatusBadRequest,
		},
		{
			name:         "missing-parent",
			route:        (*FileService).CreateFileRoute,
			body:         `{"path": "/x/a", "size": 10}`,
			wantedStatus: http.StatusNotFound,
		},
		{
			name:         "negative-size",
			route:        (*FileService).CreateFileRoute,
			body:         `{"path": "/a", "size": -5}`,
			wantedStatus: http.StatusBadRequest,
		},
		{
			name:         "too-large",
			route:        (*FileService).CreateFileRoute,
			body:         `{"path": "/a", "size": 100000000}`,
			wantedStatus: http.StatusRequestEntityTooLarge,
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			fs := newTestService(t)
			rsp, body := call(
				testCase.route(fs),
				pz.Request{Body: strings.NewReader(testCase.body)},
			)
			if rsp.Status != testCase.wantedStatus {
				t.Fatalf(
					"status: wanted `%d`; found `%d`: %s",
					testCase.wantedStatus,
					rsp.Status,
					body,
				)
			}
		})
	}
}

func TestFileService_Conflict(t *testing.T) {
	fs := newTestService(t)
	for _, wanted := range []int{http.StatusCreated, http.StatusConflict} {
		rsp, body := call(
			fs.CreateFileRoute(),
			pz.Request{Body: strings.NewReader(`{"path": "/a", "size": 1}`)},
		)
		if rsp.Status != wanted {
			t.Fatalf("wanted `%d`; found `%d`: %s", wanted, rsp.Status, body)
		}
	}
}

func TestFileService_HandleLifecycle(t *testing.T) {
	fs := newTestService(t)
	if err := fs.Kernel.Create("/f", 5); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	rsp, body := call(
		fs.OpenRoute(),
		pz.Request{Body: strings.NewReader(`{"path": "/f"}`)},
	)
	if rsp.Status != http.StatusCreated {
		t.Fatalf("open: wanted `201`; found `%d`: %s", rsp.Status, body)
	}
	var opened HandleResponse
	if err := json.Unmarshal([]byte(body), &opened); err != nil {
		t.Fatalf("unmarshaling open response: %v", err)
	}
	vars := map[string]string{"handle": strconv.Itoa(int(opened.Handle))}

	rsp, body = call(fs.WriteRoute(), pz.Request{
		Vars: vars,
		Body: strings.NewReader("hello world"),
	})
	if rsp.Status != http.StatusOK {
		t.Fatalf("write: wanted `200`; found `%d`: %s", rsp.Status, body)
	}
	var written WriteResponse
	if err := json.Unmarshal([]byte(body), &written); err != nil {
		t.Fatalf("unmarshaling write response: %v", err)
	}
	if written.Written != 5 {
		t.Fatalf("wanted `5` written; found `%d`", written.Written)
	}

	if err := fs.Kernel.Seek(opened.Handle, 0); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	rsp, body = call(fs.ReadRoute(), pz.Request{
		Vars: vars,
		URL:  mustURL("http://localhost/api/handles/1?size=100"),
	})
	if rsp.Status != http.StatusOK {
		t.Fatalf("read: wanted `200`; found `%d`: %s", rsp.Status, body)
	}
	if body != "hello" {
		t.Fatalf("wanted `hello`; found `%s`", body)
	}

	rsp, body = call(fs.CloseRoute(), pz.Request{Vars: vars})
	if rsp.Status != http.StatusOK {
		t.Fatalf("close: wanted `200`; found `%d`: %s", rsp.Status, body)
	}
	rsp, body = call(fs.CloseRoute(), pz.Request{Vars: vars})
	if rsp.Status != http.StatusBadRequest {
		t.Fatalf("second close: wanted `400`; found `%d`: %s", rsp.Status, body)
	}
}

func TestFileService_ListAndDelete(t *testing.T) {
	fs := newTestService(t)
	for _, path := range []string{"/d", "/d/e"} {
		if err := fs.Kernel.CreateDirectory(path); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if err := fs.Kernel.Create("/d/f", 1); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	for _, testCase := range []struct {
		name         string
		url          string
		wantedStatus int
		wantedBody   string
	}{
		{
			name:         "root",
			url:          "http://localhost/api/directories",
			wantedStatus: http.StatusOK,
			wantedBody:   "d [D]\n",
		},
		{
			name:         "recursive",
			url:          "http://localhost/api/directories?path=/d&recursive=true",
			wantedStatus: http.StatusOK,
			wantedBody:   "e [D]\n  Empty Folder\nf [F]\n",
		},
		{
			name:         "missing",
			url:          "http://localhost/api/directories?path=/nope",
			wantedStatus: http.StatusNotFound,
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			rsp, body := call(
				fs.ListDirectoryRoute(),
				pz.Request{URL: mustURL(testCase.url)},
			)
			if rsp.Status != testCase.wantedStatus {
				t.Fatalf(
					"wanted `%d`; found `%d`: %s",
					testCase.wantedStatus,
					rsp.Status,
					body,
				)
			}
			if testCase.wantedBody != "" && body != testCase.wantedBody {
				t.Fatalf("wanted `%q`; found `%q`", testCase.wantedBody, body)
			}
		})
	}

	rsp, body := call(fs.DeleteDirectoryRoute(), pz.Request{
		URL: mustURL("http://localhost/api/directories?path=/d"),
	})
	if rsp.Status != http.StatusOK {
		t.Fatalf("wanted `200`; found `%d`: %s", rsp.Status, body)
	}
	rsp, body = call(fs.DeleteFileRoute(), pz.Request{
		URL: mustURL("http://localhost/api/files?path=/d/f"),
	})
	if rsp.Status != http.StatusNotFound {
		t.Fatalf("wanted `404`; found `%d`: %s", rsp.Status, body)
	}
}

func TestFileService_Stats(t *testing.T) {
	fs := newTestService(t)
	rsp, body := call(fs.StatsRoute(), pz.Request{})
	if rsp.Status != http.StatusOK {
		t.Fatalf("wanted `200`; found `%d`: %s", rsp.Status, body)
	}
	var stats StatsResponse
	if err := json.Unmarshal([]byte(body), &stats); err != nil {
		t.Fatalf("unmarshaling stats: %v", err)
	}
	if stats.Geometry != DefaultGeometry {
		t.Fatalf("wanted `%v`; found `%v`", DefaultGeometry, stats.Geometry)
	}
	if stats.FreeSectors == 0 {
		t.Fatal("wanted free sectors on a fresh disk; found `0`")
	}
}
