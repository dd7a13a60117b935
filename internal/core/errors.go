package core

import (
	"errors"

	"oogiri-dataset/internal/core/types"
)

var (
	ErrMissingAsset    = errors.New("missing image asset")
	ErrUnknownTaskType = types.ErrUnknownTaskType
)
