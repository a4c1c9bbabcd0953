// board/store/seed.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Ftotnem/LIVEBOARD/board/auth"
	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

// SeedFile is the YAML layout accepted by Seed. Teams reference their leader
// by email; agents reference their team by name.
type SeedFile struct {
	Users []struct {
		Name      string      `yaml:"name"`
		Email     string      `yaml:"email"`
		Password  string      `yaml:"password"`
		Role      models.Role `yaml:"role"`
		AvatarURL string      `yaml:"avatarUrl"`
	} `yaml:"users"`
	Teams []struct {
		Name  string `yaml:"name"`
		Owner string `yaml:"owner"`
	} `yaml:"teams"`
	Agents []struct {
		Name             string `yaml:"name"`
		PhotoURL         string `yaml:"photoUrl"`
		Team             string `yaml:"team"`
		ActivationTarget int    `yaml:"activationTarget"`
		Activations      int    `yaml:"activations"`
		Submissions      int    `yaml:"submissions"`
		Points           int    `yaml:"points"`
	} `yaml:"agents"`
}

// LoadSeedFile reads and parses a seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	if len(seed.Users) == 0 {
		return nil, fmt.Errorf("seed data lists no users")
	}
	for _, u := range seed.Users {
		if u.Email == "" || u.Password == "" || !u.Role.Valid() {
			return nil, fmt.Errorf("seed user %q needs email, password and a valid role", u.Name)
		}
	}
	return &seed, nil
}

// Seed writes the seed data into st. It does nothing when the first listed
// user already exists, so restarts are harmless.
func Seed(ctx context.Context, st Store, seed *SeedFile, now time.Time) error {
	if _, err := st.GetUserByEmail(ctx, seed.Users[0].Email); err == nil {
		log.Printf("INFO: Seed data already present (user %s exists), skipping.", seed.Users[0].Email)
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to check for existing seed data: %w", err)
	}

	userIDs := make(map[string]string, len(seed.Users))
	for _, u := range seed.Users {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		user := &models.User{
			ID:           uuid.NewString(),
			Name:         u.Name,
			Email:        u.Email,
			PasswordHash: hash,
			Role:         u.Role,
			AvatarURL:    u.AvatarURL,
		}
		if err := st.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		userIDs[u.Email] = user.ID
	}

	teamIDs := make(map[string]string, len(seed.Teams))
	for _, t := range seed.Teams {
		ownerID, ok := userIDs[t.Owner]
		if !ok {
			return fmt.Errorf("seed team %q: owner %q is not a seeded user", t.Name, t.Owner)
		}
		created := now
		team := &models.Team{ID: uuid.NewString(), Name: t.Name, TLID: ownerID, CreatedAt: &created}
		if err := st.CreateTeam(ctx, team); err != nil {
			return fmt.Errorf("seed team %s: %w", t.Name, err)
		}
		if err := st.SetUserTeam(ctx, ownerID, team.ID); err != nil {
			return fmt.Errorf("seed team %s: %w", t.Name, err)
		}
		teamIDs[t.Name] = team.ID
	}

	for i, a := range seed.Agents {
		teamID, ok := teamIDs[a.Team]
		if !ok {
			return fmt.Errorf("seed agent %q: unknown team %q", a.Name, a.Team)
		}
		agent := &models.Agent{
			ID:                  uuid.NewString(),
			Name:                a.Name,
			PhotoURL:            a.PhotoURL,
			TeamID:              teamID,
			ActivationTarget:    a.ActivationTarget,
			Activations:         max(0, a.Activations),
			Submissions:         max(0, a.Submissions),
			Points:              max(0, a.Points),
			LastSubmissionReset: now,
			// Offset creation times so listings keep file order.
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		}
		if err := st.CreateAgent(ctx, agent); err != nil {
			return fmt.Errorf("seed agent %s: %w", a.Name, err)
		}
	}

	log.Printf("INFO: Seeded %d users, %d teams, %d agents.", len(seed.Users), len(seed.Teams), len(seed.Agents))
	return nil
}
