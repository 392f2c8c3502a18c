package member

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nclabs/communitybot/internal/models"
)

type GormRepositoryTestSuite struct {
	suite.Suite
	db      *gorm.DB
	repo    Repository
	ctx     context.Context
	testNow time.Time
}

func (s *GormRepositoryTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{})
	s.Require().NoError(err)

	// A fresh connection would get its own empty :memory: database.
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(db.AutoMigrate(&models.Member{}))
	s.db = db

	repo, err := NewGorm(&Config{DB: db})
	s.Require().NoError(err)
	s.repo = repo

	s.ctx = context.Background()
	s.testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestGormRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(GormRepositoryTestSuite))
}

func (s *GormRepositoryTestSuite) TestUpsertInsertsNewMember() {
	avatar := "https://cdn.example/avatar.png"
	joined := s.testNow.AddDate(-1, 0, 0)

	err := s.repo.Upsert(s.ctx, &UpsertInput{
		DiscordID:     123,
		Username:      "julio",
		AvatarURL:     &avatar,
		GuildJoinDate: &joined,
		SeenAt:        s.testNow,
	})
	s.Require().NoError(err)

	got, err := s.repo.Get(s.ctx, &GetInput{DiscordID: 123})
	s.Require().NoError(err)
	s.Equal("julio", got.Username)
	s.Require().NotNil(got.AvatarURL)
	s.Equal(avatar, *got.AvatarURL)
	s.Require().NotNil(got.GuildJoinDate)
	s.Equal(joined.Unix(), got.GuildJoinDate.Unix())
	s.Equal(s.testNow.Unix(), got.FirstSeenAt.Unix())
	s.Equal(s.testNow.Unix(), got.LastSeenAt.Unix())
	s.False(got.IsStaff)
}

func (s *GormRepositoryTestSuite) TestUpsertIsIdempotent() {
	first := s.testNow
	second := s.testNow.Add(10 * time.Minute)

	err := s.repo.Upsert(s.ctx, &UpsertInput{
		DiscordID: 123,
		Username:  "julio",
		SeenAt:    first,
	})
	s.Require().NoError(err)

	err = s.repo.Upsert(s.ctx, &UpsertInput{
		DiscordID: 123,
		Username:  "julio",
		SeenAt:    second,
	})
	s.Require().NoError(err)

	var count int64
	s.Require().NoError(s.db.Model(&models.Member{}).Count(&count).Error)
	s.Equal(int64(1), count)

	got, err := s.repo.Get(s.ctx, &GetInput{DiscordID: 123})
	s.Require().NoError(err)
	s.Equal(second.Unix(), got.LastSeenAt.Unix())
	s.Equal(first.Unix(), got.FirstSeenAt.Unix())
}

func (s *GormRepositoryTestSuite) TestUpsertRefreshesMutableFields() {
	err := s.repo.Upsert(s.ctx, &UpsertInput{
		DiscordID: 123,
		Username:  "old-name",
		SeenAt:    s.testNow,
	})
	s.Require().NoError(err)

	avatar := "https://cdn.example/new.png"
	err = s.repo.Upsert(s.ctx, &UpsertInput{
		DiscordID: 123,
		Username:  "new-name",
		AvatarURL: &avatar,
		SeenAt:    s.testNow.Add(time.Minute),
	})
	s.Require().NoError(err)

	got, err := s.repo.Get(s.ctx, &GetInput{DiscordID: 123})
	s.Require().NoError(err)
	s.Equal("new-name", got.Username)
	s.Require().NotNil(got.AvatarURL)
	s.Equal(avatar, *got.AvatarURL)
}

func (s *GormRepositoryTestSuite) TestUpsertWithoutProfileKeepsStoredProfile() {
	avatar := "https://cdn.example/avatar.png"
	err := s.repo.Upsert(s.ctx, &UpsertInput{
		DiscordID: 123,
		Username:  "julio",
		AvatarURL: &avatar,
		SeenAt:    s.testNow,
	})
	s.Require().NoError(err)

	// A reaction or presence payload may carry nothing but the ID.
	err = s.repo.Upsert(s.ctx, &UpsertInput{
		DiscordID: 123,
		SeenAt:    s.testNow.Add(time.Minute),
	})
	s.Require().NoError(err)

	got, err := s.repo.Get(s.ctx, &GetInput{DiscordID: 123})
	s.Require().NoError(err)
	s.Equal("julio", got.Username)
	s.Require().NotNil(got.AvatarURL)
	s.Equal(avatar, *got.AvatarURL)
	s.Equal(s.testNow.Add(time.Minute).Unix(), got.LastSeenAt.Unix())
}

func (s *GormRepositoryTestSuite) TestUpsertPreservesJoinDateWhenAbsent() {
	joined := s.testNow.AddDate(-1, 0, 0)

	err := s.repo.Upsert(s.ctx, &UpsertInput{
		DiscordID:     123,
		Username:      "julio",
		GuildJoinDate: &joined,
		SeenAt:        s.testNow,
	})
	s.Require().NoError(err)

	err = s.repo.Upsert(s.ctx, &UpsertInput{
		DiscordID: 123,
		Username:  "julio",
		SeenAt:    s.testNow.Add(time.Minute),
	})
	s.Require().NoError(err)

	got, err := s.repo.Get(s.ctx, &GetInput{DiscordID: 123})
	s.Require().NoError(err)
	s.Require().NotNil(got.GuildJoinDate)
	s.Equal(joined.Unix(), got.GuildJoinDate.Unix())
}

func (s *GormRepositoryTestSuite) TestGetUnknownMember() {
	_, err := s.repo.Get(s.ctx, &GetInput{DiscordID: 999})
	s.Require().ErrorIs(err, ErrMemberNotFound)
}

func (s *GormRepositoryTestSuite) TestListByIDs() {
	for i, name := range []string{"alpha", "bravo", "charlie"} {
		err := s.repo.Upsert(s.ctx, &UpsertInput{
			DiscordID: int64(i + 1),
			Username:  name,
			SeenAt:    s.testNow,
		})
		s.Require().NoError(err)
	}

	out, err := s.repo.ListByIDs(s.ctx, &ListByIDsInput{DiscordIDs: []int64{1, 3, 42}})
	s.Require().NoError(err)
	s.Require().Len(out.Members, 2)

	names := map[int64]string{}
	for _, m := range out.Members {
		names[m.DiscordID] = m.Username
	}
	s.Equal("alpha", names[1])
	s.Equal("charlie", names[3])
}
