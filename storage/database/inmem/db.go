// Package inmemdb keeps every table in memory. It backs tests and the local demo mode.
package inmemdb

import (
	"sync"

	"github.com/aiesec-vn/ogvhub/core/funnel"
	"github.com/aiesec-vn/ogvhub/core/lead"
	"github.com/aiesec-vn/ogvhub/core/profile"
	"github.com/aiesec-vn/ogvhub/core/refdata"
)

type (
	DB struct {
		submission *submissionTable
		allocLog   *allocLogTable
		crm        *crmTable
		profile    *profileTable
		refdata    *refdataTables
	}

	submissionTable struct {
		sync.RWMutex
		table map[string]lead.RawRecord
	}

	allocLogTable struct {
		sync.RWMutex
		rows []lead.AllocationLog
	}

	crmTable struct {
		sync.RWMutex
		table map[string]funnel.Record
	}

	profileTable struct {
		sync.RWMutex
		table map[string]profile.Profile
	}

	refdataTables struct {
		sync.RWMutex
		mappings map[string]string
		phases   map[string]refdata.Phase
		goals    map[[2]string]refdata.Goal // {lc, phase}
		links    map[string]refdata.UTMLink
	}
)

func Open() *DB {
	return &DB{
		submission: &submissionTable{table: make(map[string]lead.RawRecord)},
		allocLog:   &allocLogTable{},
		crm:        &crmTable{table: make(map[string]funnel.Record)},
		profile:    &profileTable{table: make(map[string]profile.Profile)},
		refdata: &refdataTables{
			mappings: make(map[string]string),
			phases:   make(map[string]refdata.Phase),
			goals:    make(map[[2]string]refdata.Goal),
			links:    make(map[string]refdata.UTMLink),
		},
	}
}
