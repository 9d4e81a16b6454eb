package seed

import (
	"context"
	"fmt"
	"time"

	"hiredesk/internal/store"
	"hiredesk/pkg/types"

	"github.com/k0kubun/pp/v3"
)

var sampleApplications = []*types.Application{
	{
		Role:             "Backend Engineer",
		Location:         "Hyderabad",
		EmploymentStatus: "experienced",
		PersonalInfo: types.PersonalInfo{
			FullName:    "Ava Williams",
			Email:       "ava.williams+seed1@example.com",
			Phone:       "9000000001",
			Gender:      "female",
			FatherName:  "Robert Williams",
			FatherPhone: "9000000101",
		},
		EmploymentHistory: &types.EmploymentHistory{
			CompanyName: "Acme Systems",
			Location:    "Bengaluru",
			Experience:  "3 years",
		},
		Status: types.ApplicationStatusApproved,
	},
	{
		Role:             "QA Analyst",
		Location:         "Chennai",
		EmploymentStatus: "fresher",
		PersonalInfo: types.PersonalInfo{
			FullName:    "Liam Johnson",
			Email:       "liam.johnson+seed2@example.com",
			Phone:       "9000000002",
			Gender:      "male",
			FatherName:  "Mark Johnson",
			FatherPhone: "9000000102",
		},
		Status: types.ApplicationStatusPending,
	},
	{
		Role:             "Support Engineer",
		Location:         "Pune",
		EmploymentStatus: "fresher",
		PersonalInfo: types.PersonalInfo{
			FullName:    "Mia Davis",
			Email:       "mia.davis+seed3@example.com",
			Phone:       "9000000003",
			Gender:      "female",
			FatherName:  "James Davis",
			FatherPhone: "9000000103",
		},
		Status: types.ApplicationStatusRejected,
	},
}

// SeedApplications inserts the sample applications, skipping any whose
// email and phone already submitted today.
func SeedApplications(ctx context.Context, repo *store.ApplicationRepository) error {
	seeded := 0
	for _, sample := range sampleApplications {
		exists, err := repo.SubmittedOn(ctx, sample.PersonalInfo.Email, sample.PersonalInfo.Phone, time.Now())
		if err != nil {
			return fmt.Errorf("failed to check sample application %s: %w", sample.PersonalInfo.Email, err)
		}
		if exists {
			continue
		}

		app := *sample
		if err := repo.Create(ctx, &app); err != nil {
			return fmt.Errorf("failed to create sample application %s: %w", sample.PersonalInfo.Email, err)
		}

		pp.Println(app.ID, app.PersonalInfo.FullName, app.Status)
		seeded++
	}

	fmt.Printf("seeded %d applications\n", seeded)
	return nil
}
