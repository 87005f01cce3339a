package plan_test

import "github.com/okian/resplan/internal/domain/model"

func samplePeriod() model.Period {
	return model.Period{
		ID:          "2026q4",
		DisplayName: "2026 Q4",
		Unit:        "person weeks",
		SecondaryUnits: []model.SecondaryUnit{
			{Name: "person years", ConversionFactor: 1.0 / 52},
		},
		NotesURL:               "https://example.com/notes",
		MaxCommittedPercentage: 50,
		Buckets: []model.Bucket{
			{
				DisplayName:          "Bucket 1",
				AllocationType:       model.AllocationTypePercentage,
				AllocationPercentage: 40,
				Objectives: []model.Objective{
					{
						Name:             "An objective",
						ResourceEstimate: 6,
						CommitmentType:   model.CommitmentTypeCommitted,
						Notes:            "some notes",
						Groups:           []model.ObjectiveGroup{{GroupType: "Project", GroupName: "Alpha"}},
						Tags:             []model.ObjectiveTag{{Name: "infra"}},
						Assignments:      []model.Assignment{{PersonID: "person1", Commitment: 3}},
						BlockID:          "block-1",
						DisplayOptions:   &model.DisplayOptions{EnableMarkdown: true},
					},
					{
						Name:             "Second",
						ResourceEstimate: 2,
						Groups:           []model.ObjectiveGroup{},
						Tags:             []model.ObjectiveTag{},
						Assignments:      []model.Assignment{},
					},
				},
			},
			{
				DisplayName:          "Bucket 2",
				AllocationType:       model.AllocationTypePercentage,
				AllocationPercentage: 60,
				Objectives:           []model.Objective{},
			},
		},
		People: []model.Person{
			{ID: "person1", DisplayName: "Person 1", Availability: 6},
			{ID: "person2", DisplayName: "Person 2", Availability: 7},
		},
		LastUpdateUUID: "token-1",
	}
}
