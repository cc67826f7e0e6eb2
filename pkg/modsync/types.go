package modsync

import (
	"github.com/bianoble/modsync/internal/compat"
	"github.com/bianoble/modsync/internal/engine"
	"github.com/bianoble/modsync/internal/entity"
	"github.com/bianoble/modsync/internal/export"
	"github.com/bianoble/modsync/internal/platform"
)

// Type aliases re-export engine result types as the public API.
// Users import "github.com/bianoble/modsync/pkg/modsync" and use
// modsync.ExportResult, modsync.CheckResult, etc.

type FileAction = engine.FileAction
type EntityError = engine.EntityError
type DriftEntry = engine.DriftEntry
type ProfileResult = engine.ProfileResult
type ExportResult = engine.ExportResult
type FetchResult = engine.FetchResult
type CheckResult = engine.CheckResult
type EntityStatus = engine.EntityStatus
type PruneResult = engine.PruneResult
type UpdateResult = engine.UpdateResult
type EntityUpdate = engine.EntityUpdate
type AddResult = engine.AddResult

// Platform client types, for registering platforms with a Client.

type PlatformClient = platform.Client
type Entity = entity.Entity
type EntityFile = entity.File
type CompatRequest = compat.Request

// Downloader returns the content of an entity file.
type Downloader = export.Downloader
