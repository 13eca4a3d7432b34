package types

import (
	pz "github.com/weberc2/httpeasy"
)

type ConstError string

func (err ConstError) Error() string { return string(err) }

var (
	ErrNoSuchDirectory = &pz.HTTPError{
		Status:  404,
		Message: "no such directory",
	}
	ErrNotFound      = &pz.HTTPError{Status: 404, Message: "no such file"}
	ErrAlreadyExists = &pz.HTTPError{
		Status:  409,
		Message: "file is already in directory",
	}
	ErrDirectoryFull = &pz.HTTPError{
		Status:  507,
		Message: "no space in directory",
	}
	ErrNoFreeSector = &pz.HTTPError{
		Status:  507,
		Message: "no free block for file header",
	}
	ErrNoSpace = &pz.HTTPError{
		Status:  507,
		Message: "no space on disk for data",
	}
	ErrInvalidHandle = &pz.HTTPError{
		Status:  400,
		Message: "invalid file handle",
	}
	ErrNotADirectory = &pz.HTTPError{Status: 400, Message: "not a directory"}
	ErrFileTooLarge  = &pz.HTTPError{
		Status:  413,
		Message: "file would be too large",
	}
	ErrInvalidPath = &pz.HTTPError{Status: 400, Message: "invalid path"}
	ErrInvalidSize = &pz.HTTPError{Status: 400, Message: "invalid file size"}
	ErrTooDeep     = &pz.HTTPError{
		Status:  508,
		Message: "directory nesting too deep",
	}
)
