package analysis

import "github.com/desertthunder/pathfinder/internal/models"

// Profile is a job category with the keywords that indicate it and its open listings.
type Profile struct {
	Category string
	Keywords []string // regular expressions, matched case-insensitively on word boundaries
	Listings []models.JobListing
}

func listing(title, company, location, schedule, salary, posted, slug string) models.JobListing {
	return models.JobListing{
		Title:     title,
		Company:   company,
		Location:  location,
		Thumbnail: "https://jobs.example.com/logos/" + slug + ".png",
		Link:      "https://jobs.example.com/listings/" + slug,
		Extensions: models.DetectedExtensions{
			ScheduleType: schedule,
			Salary:       salary,
			PostedAt:     posted,
		},
	}
}

// DefaultCatalog is the development server's job catalog.
var DefaultCatalog = []Profile{
	{
		Category: "Backend Developer",
		Keywords: []string{`golang|go`, `java`, `python`, `node(\.js)?`, `sql|postgres(ql)?|mysql`, `rest(ful)?\s*api`, `grpc`, `microservices?`, `redis`, `backend|back-end`},
		Listings: []models.JobListing{
			listing("Backend Engineer (Go)", "Initech", "Remote", "Full-time", "$110K-$140K a year", "2 days ago", "initech-backend"),
			listing("API Developer", "Globex", "Austin, TX", "Full-time", "", "1 week ago", "globex-api"),
		},
	},
	{
		Category: "Frontend Developer",
		Keywords: []string{`javascript|js`, `typescript|ts`, `react`, `vue(\.js)?`, `angular`, `html5?`, `css3?|tailwind`, `frontend|front-end`, `webpack|vite`},
		Listings: []models.JobListing{
			listing("Frontend Developer", "Hooli", "San Francisco, CA", "Full-time", "$100K-$130K a year", "5 days ago", "hooli-frontend"),
			listing("React Engineer", "Pied Piper", "Remote", "Contractor", "$60 an hour", "today", "piedpiper-react"),
		},
	},
	{
		Category: "Data Analyst",
		Keywords: []string{`sql`, `excel`, `tableau`, `power\s*bi`, `pandas`, `statistics?|statistical`, `data\s*(analysis|analytics|visuali[sz]ation)`, `python`, `r`},
		Listings: []models.JobListing{
			listing("Junior Data Analyst", "Northwind", "Chicago, IL", "Full-time", "$65K-$80K a year", "3 days ago", "northwind-analyst"),
			listing("Business Intelligence Analyst", "Contoso", "Remote", "Full-time", "", "2 weeks ago", "contoso-bi"),
		},
	},
	{
		Category: "DevOps Engineer",
		Keywords: []string{`docker`, `kubernetes|k8s`, `terraform`, `aws|gcp|azure`, `ci/cd|ci|cd`, `linux`, `ansible`, `prometheus|grafana`, `devops|sre`},
		Listings: []models.JobListing{
			listing("DevOps Engineer", "Umbrella", "Seattle, WA", "Full-time", "$120K-$150K a year", "1 day ago", "umbrella-devops"),
			listing("Site Reliability Engineer", "Initech", "Remote", "Full-time", "", "4 days ago", "initech-sre"),
		},
	},
	{
		Category: "Mobile Developer",
		Keywords: []string{`android`, `ios`, `kotlin`, `swift`, `flutter|dart`, `react\s*native`, `mobile`},
		Listings: []models.JobListing{
			listing("Android Developer", "Stark Industries", "New York, NY", "Full-time", "$105K a year", "6 days ago", "stark-android"),
			listing("Flutter Developer", "Wayne Enterprises", "Remote", "Part-time", "", "today", "wayne-flutter"),
		},
	},
	{
		Category: "UI/UX Designer",
		Keywords: []string{`figma`, `sketch`, `adobe\s*xd`, `wireframes?|prototyp(e|ing)`, `user\s*research`, `ui|ux`, `design\s*systems?`, `usability`},
		Listings: []models.JobListing{
			listing("Product Designer", "Hooli", "Remote", "Full-time", "$95K-$125K a year", "3 days ago", "hooli-design"),
		},
	},
	{
		Category: "QA Engineer",
		Keywords: []string{`selenium`, `cypress|playwright`, `test\s*automation|automated\s*tests?`, `qa|quality\s*assurance`, `junit|pytest|jest`, `manual\s*testing`, `test\s*cases?`},
		Listings: []models.JobListing{
			listing("QA Automation Engineer", "Globex", "Denver, CO", "Full-time", "$85K-$100K a year", "1 week ago", "globex-qa"),
		},
	},
}
