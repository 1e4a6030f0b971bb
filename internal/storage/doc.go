// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides local persistence for dsamentor.
//
// State lives in three whole-value records: the conversation list, the
// bookmark snapshots, and the theme flag. Every write replaces a record
// completely.
//
// # Key Types
//
//   - Store: byte-level key/value interface
//   - BoltStore, FileStore, SQLiteStore: the three backends
//   - Records: typed, failure-tolerant access to the three records
//
// # Usage
//
//	store, err := storage.Open(storage.BackendBolt, dataDir)
//	records := storage.NewRecords(store, log)
//	convs := records.LoadConversations()
//	err = records.SaveConversations(convs)
//
// # Storage Location
//
// Records are stored under ~/.dsamentor/ (dsamentor.db, dsamentor.sqlite, or
// records/*.json depending on the backend).
package storage
