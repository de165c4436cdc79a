package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/drawberry-games/drawberry/internal/buildinfo"
	"github.com/drawberry-games/drawberry/internal/database"
	stateDb "github.com/drawberry-games/drawberry/internal/database/matchstate/database"
	statDb "github.com/drawberry-games/drawberry/internal/database/stat/database"
	userDb "github.com/drawberry-games/drawberry/internal/database/user/database"
	"github.com/drawberry-games/drawberry/internal/logging"
	"github.com/drawberry-games/drawberry/internal/shutdown"
	"github.com/drawberry-games/drawberry/internal/util"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(os.Stdout, buildinfo.GreetingCLI, buildinfo.ProjectName, buildinfo.Version, buildinfo.GithubURL)

	playerID := flag.String("player", "", "print the profile of the player with this id")
	rooms := flag.Bool("rooms", false, "list rooms saved by the last shutdown")
	flag.Parse()

	ctx, done := shutdown.New()
	defer done()
	logger := logging.FromContext(ctx)

	_ = godotenv.Load()

	config := database.Config{}
	if err := envconfig.Process("", &config); err != nil {
		logger.Fatalf("processing the config: %v", err)
	}

	if err := realMain(ctx, &config, *playerID, *rooms); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context, config *database.Config, playerID string, rooms bool) error {
	if playerID == "" && !rooms {
		flag.Usage()
		return nil
	}

	config.ReadOnly = true
	db, err := database.NewFromEnv(ctx, config)
	if err != nil {
		return fmt.Errorf("new database from env: %w", err)
	}

	defer db.Close(ctx)

	if rooms {
		if err := printRooms(stateDb.New(db)); err != nil {
			return err
		}
	}

	if playerID != "" {
		if err := printProfile(userDb.New(db, nil), statDb.New(db, nil), playerID); err != nil {
			return err
		}
	}

	return nil
}

func printRooms(db *stateDb.DB) error {
	states, err := db.FetchAll()
	if err != nil {
		if errors.Is(err, stateDb.ErrEntryNotFound) || errors.Is(err, stateDb.ErrBucketNotFound) {
			_, _ = fmt.Fprintln(os.Stdout, "No saved rooms")
			return nil
		}

		return fmt.Errorf("fetch rooms: %w", err)
	}

	if len(states) == 0 {
		_, _ = fmt.Fprintln(os.Stdout, "No saved rooms")
	}

	for _, state := range states {
		_, _ = fmt.Fprintf(
			os.Stdout,
			"%d by %s, round %d of %d, %d %s\n",
			state.Code,
			state.AuthorID,
			state.Round,
			state.MaxRounds,
			len(state.Players),
			util.Plural(len(state.Players), "player", "players"),
		)
	}

	return nil
}

func printProfile(users *userDb.DB, stats *statDb.DB, playerID string) error {
	u, err := users.Fetch(playerID)
	if err != nil {
		return fmt.Errorf("fetch user %s: %w", playerID, err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "%s (%s), %d %s, %d %s\n", u.Name, u.ID,
		u.Games, util.Plural(u.Games, "game", "games"),
		u.Stars, util.Plural(u.Stars, "star", "stars"))

	stat, err := stats.FetchProfileStat(playerID)
	if err != nil {
		if errors.Is(err, statDb.ErrNotFound) {
			_, _ = fmt.Fprintln(os.Stdout, "No finished matches yet")
			return nil
		}

		return fmt.Errorf("fetch profile stat: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "First places: %d\n", stat.FirstPlaces)
	_, _ = fmt.Fprintf(os.Stdout, "Second places: %d\n", stat.SecondPlaces)
	_, _ = fmt.Fprintf(os.Stdout, "Votes received: %d\n", stat.TotalVotes)
	_, _ = fmt.Fprintf(os.Stdout, "Points: best %d, worst %d, average %d\n", stat.BestPoints, stat.WorstPoints, stat.AvgPoints)
	_, _ = fmt.Fprintf(os.Stdout, "Best place: %d\n", stat.BestPlace)

	return nil
}
