package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/resplan/internal/adapters/repository"
	service "github.com/okian/resplan/internal/app"
	"github.com/okian/resplan/internal/domain/model"
	"github.com/okian/resplan/internal/domain/plan"
	"github.com/okian/resplan/pkg/logger"
)

const teamID = "platform"

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func seededStore(ctx context.Context) *repository.MemoryStore {
	store := repository.NewMemoryStore()
	if err := store.CreateTeam(ctx, model.Team{ID: teamID, DisplayName: "Platform"}); err != nil {
		panic(err)
	}
	_, err := store.CreatePeriod(ctx, teamID, model.Period{
		ID:          "2026q4",
		DisplayName: "Q4",
		Unit:        "person weeks",
		People:      []model.Person{{ID: "alice", DisplayName: "Alice", Availability: 10}},
		Buckets: []model.Bucket{{
			DisplayName:          "Roadmap",
			AllocationType:       model.AllocationTypePercentage,
			AllocationPercentage: 100,
		}},
	})
	if err != nil {
		panic(err)
	}
	return store
}

func rename(name string) service.Edit {
	return func(p *plan.Period) (*plan.Period, error) { return p.WithDisplayName(name), nil }
}

func waitCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Second)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New(seededStore(ctx), service.WithQueueSize(8), service.WithSaveDebounce(10*time.Millisecond))

		Convey("When opening a session before Start", func() {
			_, err := svc.Open(ctx, teamID, "2026q4")

			Convey("Then it is refused", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When the service is started", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then it reports its configuration", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["queueSize"], ShouldEqual, 8)
				So(stats["queueLength"], ShouldEqual, 0)
			})

			Convey("Then starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("Then an unknown period cannot be opened", func() {
				_, err := svc.Open(ctx, teamID, "missing")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then a period can only have one session", func() {
				sess, err := svc.Open(ctx, teamID, "2026q4")
				So(err, ShouldBeNil)
				So(svc.GetStats()["sessions"], ShouldEqual, 1)

				_, err = svc.Open(ctx, teamID, "2026q4")
				So(errors.Is(err, service.ErrSessionOpen), ShouldBeTrue)

				sess.Close()
				again, err := svc.Open(ctx, teamID, "2026q4")
				So(err, ShouldBeNil)
				So(again, ShouldNotBeNil)
			})
		})

		Convey("When the service is stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then stopping again is a no-op", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.GetStats()["started"], ShouldBeFalse)
			})
		})
	})
}

func TestSession_Saving(t *testing.T) {
	Convey("Given an open session", t, func() {
		ctx := context.Background()
		store := seededStore(ctx)
		svc := service.New(store, service.WithSaveDebounce(20*time.Millisecond))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		sess, err := svc.Open(ctx, teamID, "2026q4")
		So(err, ShouldBeNil)
		loaded := sess.Period().LastUpdateUUID()

		Convey("When a burst of edits is applied", func() {
			for _, name := range []string{"a", "b", "c"} {
				So(sess.Apply(ctx, "rename", rename(name)), ShouldBeNil)
			}
			wctx, cancel := waitCtx()
			defer cancel()
			So(sess.Wait(wctx), ShouldBeNil)

			Convey("Then the store holds the last state in a single write", func() {
				stored, err := store.GetPeriod(ctx, teamID, "2026q4")
				So(err, ShouldBeNil)
				So(stored.DisplayName, ShouldEqual, "c")

				backups, err := store.GetPeriodBackups(ctx, teamID, "2026q4")
				So(err, ShouldBeNil)
				So(len(backups), ShouldEqual, 1)
			})

			Convey("Then the session carries the new token", func() {
				stored, _ := store.GetPeriod(ctx, teamID, "2026q4")
				So(sess.Period().LastUpdateUUID(), ShouldEqual, stored.LastUpdateUUID)
				So(sess.Period().LastUpdateUUID(), ShouldNotEqual, loaded)
			})

			Convey("Then later edits save over the new token", func() {
				So(sess.Apply(ctx, "rename", rename("d")), ShouldBeNil)
				wctx, cancel := waitCtx()
				defer cancel()
				So(sess.Wait(wctx), ShouldBeNil)

				stored, _ := store.GetPeriod(ctx, teamID, "2026q4")
				So(stored.DisplayName, ShouldEqual, "d")
				So(sess.Period().LastUpdateUUID(), ShouldEqual, stored.LastUpdateUUID)
			})
		})

		Convey("When an edit changes nothing", func() {
			So(sess.Apply(ctx, "rename", rename("Q4")), ShouldBeNil)
			wctx, cancel := waitCtx()
			defer cancel()
			So(sess.Wait(wctx), ShouldBeNil)

			Convey("Then nothing is written", func() {
				backups, _ := store.GetPeriodBackups(ctx, teamID, "2026q4")
				So(backups, ShouldBeEmpty)
				So(sess.Period().LastUpdateUUID(), ShouldEqual, loaded)
			})
		})

		Convey("When an edit fails", func() {
			err := sess.Apply(ctx, "new_person", func(p *plan.Period) (*plan.Period, error) {
				return p.WithNewPerson(plan.NewPerson("alice", "Alice again", 3))
			})

			Convey("Then the error is returned and the period is unchanged", func() {
				So(errors.Is(err, plan.ErrDuplicatePerson), ShouldBeTrue)
				So(len(sess.Period().People()), ShouldEqual, 1)
			})
		})

		Convey("When the session is closed", func() {
			sess.Close()

			Convey("Then edits are refused", func() {
				So(errors.Is(sess.Apply(ctx, "rename", rename("x")), service.ErrSessionClose), ShouldBeTrue)
			})
		})
	})
}

func TestSession_Conflict(t *testing.T) {
	Convey("Given a session whose period is changed by another writer", t, func() {
		ctx := context.Background()
		store := seededStore(ctx)
		svc := service.New(store, service.WithSaveDebounce(5*time.Millisecond))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		sess, err := svc.Open(ctx, teamID, "2026q4")
		So(err, ShouldBeNil)

		theirs := sess.Period().WithDisplayName("theirs").ToOriginal()
		_, err = store.UpdatePeriod(ctx, teamID, theirs)
		So(err, ShouldBeNil)

		So(sess.Apply(ctx, "rename", rename("mine")), ShouldBeNil)
		wctx, cancel := waitCtx()
		defer cancel()
		err = sess.Wait(wctx)

		Convey("Then the save reports a conflict with a diff", func() {
			var conflict *service.ConflictError
			So(errors.As(err, &conflict), ShouldBeTrue)
			So(errors.Is(err, repository.ErrConflict), ShouldBeTrue)
			So(conflict.Stored.DisplayName, ShouldEqual, "theirs")
			So(conflict.Local.DisplayName, ShouldEqual, "mine")
			So(conflict.Diff, ShouldContainSubstring, "--- stored")
			So(conflict.Diff, ShouldContainSubstring, "+++ local")
			So(conflict.Diff, ShouldContainSubstring, `-  "displayName": "theirs",`)
			So(conflict.Diff, ShouldContainSubstring, `+  "displayName": "mine",`)
			So(sess.Conflict(), ShouldEqual, conflict)
		})

		Convey("Then further edits are refused", func() {
			err := sess.Apply(ctx, "rename", rename("again"))
			So(errors.Is(err, repository.ErrConflict), ShouldBeTrue)
		})

		Convey("When the session reloads", func() {
			So(sess.Reload(ctx), ShouldBeNil)

			Convey("Then it continues from the stored period", func() {
				So(sess.Conflict(), ShouldBeNil)
				So(sess.Period().DisplayName(), ShouldEqual, "theirs")

				So(sess.Apply(ctx, "rename", rename("merged")), ShouldBeNil)
				wctx, cancel := waitCtx()
				defer cancel()
				So(sess.Wait(wctx), ShouldBeNil)

				stored, _ := store.GetPeriod(ctx, teamID, "2026q4")
				So(stored.DisplayName, ShouldEqual, "merged")
			})
		})
	})
}

func TestService_StopFlushes(t *testing.T) {
	Convey("Given an edit waiting in a long debounce window", t, func() {
		ctx := context.Background()
		store := seededStore(ctx)
		svc := service.New(store, service.WithSaveDebounce(time.Hour))
		So(svc.Start(ctx), ShouldBeNil)

		sess, err := svc.Open(ctx, teamID, "2026q4")
		So(err, ShouldBeNil)
		So(sess.Apply(ctx, "rename", rename("flushed")), ShouldBeNil)

		Convey("When the service stops", func() {
			stopCtx, cancel := waitCtx()
			defer cancel()
			So(svc.Stop(stopCtx), ShouldBeNil)

			Convey("Then the edit is written", func() {
				stored, _ := store.GetPeriod(ctx, teamID, "2026q4")
				So(stored.DisplayName, ShouldEqual, "flushed")
				So(sess.Period().LastUpdateUUID(), ShouldEqual, stored.LastUpdateUUID)
			})

			Convey("Then new edits are refused", func() {
				So(errors.Is(sess.Apply(ctx, "rename", rename("late")), service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestSession_RefusedSnapshot(t *testing.T) {
	Convey("Given a session on a stopped service", t, func() {
		ctx := context.Background()
		store := seededStore(ctx)
		svc := service.New(store, service.WithSaveDebounce(5*time.Millisecond))
		So(svc.Start(ctx), ShouldBeNil)

		sess, err := svc.Open(ctx, teamID, "2026q4")
		So(err, ShouldBeNil)
		So(svc.Stop(ctx), ShouldBeNil)

		addBob := func(p *plan.Period) (*plan.Period, error) {
			return p.WithNewPerson(plan.NewPerson("bob", "Bob", 5))
		}

		Convey("When an edit is applied", func() {
			err := sess.Apply(ctx, "new_person", addBob)

			Convey("Then it is refused and the working copy is unchanged", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(len(sess.Period().People()), ShouldEqual, 1)

				wctx, cancel := waitCtx()
				defer cancel()
				So(sess.Wait(wctx), ShouldBeNil)
			})

			Convey("Then the same edit succeeds once the service runs again", func() {
				So(svc.Start(ctx), ShouldBeNil)
				defer func() { _ = svc.Stop(ctx) }()

				So(sess.Apply(ctx, "new_person", addBob), ShouldBeNil)
				wctx, cancel := waitCtx()
				defer cancel()
				So(sess.Wait(wctx), ShouldBeNil)

				stored, _ := store.GetPeriod(ctx, teamID, "2026q4")
				So(len(stored.People), ShouldEqual, 2)
				So(sess.Period().LastUpdateUUID(), ShouldEqual, stored.LastUpdateUUID)
			})
		})
	})
}

func TestSession_ReloadDropsPendingEdits(t *testing.T) {
	Convey("Given an edit still inside the debounce window", t, func() {
		ctx := context.Background()
		store := seededStore(ctx)
		svc := service.New(store, service.WithSaveDebounce(200*time.Millisecond))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		sess, err := svc.Open(ctx, teamID, "2026q4")
		So(err, ShouldBeNil)
		loaded := sess.Period().LastUpdateUUID()
		So(sess.Apply(ctx, "rename", rename("Discard me")), ShouldBeNil)

		Convey("When the session reloads", func() {
			So(sess.Reload(ctx), ShouldBeNil)
			time.Sleep(500 * time.Millisecond)

			Convey("Then the discarded edit never reaches the store", func() {
				stored, _ := store.GetPeriod(ctx, teamID, "2026q4")
				So(stored.DisplayName, ShouldEqual, "Q4")
				So(stored.LastUpdateUUID, ShouldEqual, loaded)

				backups, _ := store.GetPeriodBackups(ctx, teamID, "2026q4")
				So(backups, ShouldBeEmpty)
			})

			Convey("Then the session matches the store and is idle", func() {
				So(sess.Period().DisplayName(), ShouldEqual, "Q4")
				So(sess.Period().LastUpdateUUID(), ShouldEqual, loaded)

				wctx, cancel := waitCtx()
				defer cancel()
				So(sess.Wait(wctx), ShouldBeNil)
			})

			Convey("Then later edits are saved", func() {
				So(sess.Apply(ctx, "rename", rename("kept")), ShouldBeNil)
				wctx, cancel := waitCtx()
				defer cancel()
				So(sess.Wait(wctx), ShouldBeNil)

				stored, _ := store.GetPeriod(ctx, teamID, "2026q4")
				So(stored.DisplayName, ShouldEqual, "kept")
			})
		})

		Convey("When the session is closed and the period reopened", func() {
			So(sess.Reload(ctx), ShouldBeNil)
			sess.Close()
			again, err := svc.Open(ctx, teamID, "2026q4")
			So(err, ShouldBeNil)

			Convey("Then edits from the new session are saved", func() {
				So(again.Apply(ctx, "rename", rename("reopened")), ShouldBeNil)
				wctx, cancel := waitCtx()
				defer cancel()
				So(again.Wait(wctx), ShouldBeNil)

				stored, _ := store.GetPeriod(ctx, teamID, "2026q4")
				So(stored.DisplayName, ShouldEqual, "reopened")
			})
		})
	})
}
