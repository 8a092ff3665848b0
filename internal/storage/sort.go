package storage

import (
	"sort"

	"github.com/mcoot/triviastake/internal/model"
)

// SortParticipants orders participants by join time, then handle
func SortParticipants(participants []model.Participant) {
	sort.Slice(participants, func(i, j int) bool {
		if !participants[i].JoinedAt.Equal(participants[j].JoinedAt) {
			return participants[i].JoinedAt.Before(participants[j].JoinedAt)
		}
		return participants[i].Handle < participants[j].Handle
	})
}
