// Command token mints an access token for an employee so the attendance API
// can be exercised without the external auth service.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nikgitofficial/timetracker-sub001/internal/config"
	"github.com/nikgitofficial/timetracker-sub001/internal/domain/attendance"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/jwt"
	"github.com/nikgitofficial/timetracker-sub001/internal/pkg/validator"
)

func main() {
	name := flag.String("name", "", "employee name")
	email := flag.String("email", "", "employee email")
	flag.Parse()

	key := attendance.EmployeeKey{Name: *name, Email: *email}.Normalize()
	if validator.IsEmpty(key.Name) || !validator.IsValidEmail(key.Email) {
		fmt.Fprintln(os.Stderr, "usage: token -name <name> -email <email>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	token, expiresAt, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration).GenerateAccessToken(key)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error generating token:", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
}
