package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/clhstestify/online-judge/internal/dto"
	"github.com/clhstestify/online-judge/internal/models"
	"github.com/clhstestify/online-judge/internal/repository"
	"github.com/clhstestify/online-judge/internal/utils"
)

// Resolver read-model failures.
var (
	ErrContestNotFound  = errors.New("contest not found")
	ErrScoreboardHidden = errors.New("scoreboard is not visible")
)

// codeforcesPenaltyMinutes is the per-wrong-attempt penalty on the contest
// payload, matching the scoring formula.
const codeforcesPenaltyMinutes = 20

// Labeler maps a zero-based problem ordinal to a display label. When nil or
// erroring, labels fall back to bijective base-26.
type Labeler func(index int) (string, error)

// ResolverService builds the read model consumed by external resolver and
// scoreboard tools: contest metadata, catalogs, ranked scoreboard snapshots
// and the one-shot NDJSON event feed.
type ResolverService interface {
	Contest(ctx context.Context, contestKey string) (dto.ContestData, error)
	Problems(ctx context.Context, contestKey string) ([]dto.ProblemData, error)
	Teams(ctx context.Context, contestKey string) ([]dto.TeamData, error)
	Organizations(ctx context.Context, contestKey string) ([]dto.OrganizationData, error)
	Languages(ctx context.Context, contestKey string) ([]dto.LanguageData, error)
	JudgementTypes(ctx context.Context) []dto.JudgementTypeData
	Scoreboard(ctx context.Context, contestKey string) (dto.ScoreboardData, error)
	// EventFeed streams the full configuration and submission history as
	// newline-delimited JSON create events, in replay order.
	EventFeed(ctx context.Context, contestKey string, w io.Writer) error
}

type resolverService struct {
	contests       repository.ContestRepository
	participations repository.ParticipationRepository
	submissions    repository.ContestSubmissionRepository
	cache          *redis.Client
	cacheTTL       time.Duration
	labeler        Labeler
	logger         zerolog.Logger
	now            func() time.Time
}

// NewResolverService constructs the resolver service. The redis client is
// optional; without one the scoreboard is rebuilt on every request.
func NewResolverService(
	contests repository.ContestRepository,
	participations repository.ParticipationRepository,
	submissions repository.ContestSubmissionRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	labeler Labeler,
	logger zerolog.Logger,
) ResolverService {
	return &resolverService{
		contests:       contests,
		participations: participations,
		submissions:    submissions,
		cache:          cache,
		cacheTTL:       cacheTTL,
		labeler:        labeler,
		logger:         logger.With().Str("component", "resolver_service").Logger(),
		now:            time.Now,
	}
}

func (s *resolverService) contestByKey(ctx context.Context, key string) (models.Contest, error) {
	contest, err := s.contests.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Contest{}, ErrContestNotFound
		}
		return models.Contest{}, err
	}

	return contest, nil
}

func (s *resolverService) Contest(ctx context.Context, contestKey string) (dto.ContestData, error) {
	contest, err := s.contestByKey(ctx, contestKey)
	if err != nil {
		return dto.ContestData{}, err
	}

	return contestData(contest), nil
}

func contestData(contest models.Contest) dto.ContestData {
	data := dto.ContestData{
		ID:         contest.Key,
		Name:       contest.Name,
		FormalName: contest.Name,
		StartTime:  contest.StartTime.UTC().Format(time.RFC3339),
		Duration:   utils.FormatHMS(contest.Duration()),
	}

	freeze := contest.FreezeAfter()
	if freeze != nil {
		// The resolver wants the frozen tail, not the freeze offset.
		data.ScoreboardFreezeDuration = utils.FormatISODuration(contest.Duration() - *freeze)
	}

	if contest.FormatName == "codeforces" {
		penalty := codeforcesPenaltyMinutes
		penaltyType := "contest-problem"
		data.PenaltyTime = &penalty
		data.PenaltyType = &penaltyType
		data.ScoreboardType = "pass-fail"
	} else {
		data.ScoreboardType = "score"
	}

	return data
}

func (s *resolverService) Problems(ctx context.Context, contestKey string) ([]dto.ProblemData, error) {
	contest, err := s.contestByKey(ctx, contestKey)
	if err != nil {
		return nil, err
	}

	problems, err := s.contests.ListProblems(ctx, contest.ID)
	if err != nil {
		return nil, err
	}

	return s.problemData(problems), nil
}

func (s *resolverService) problemData(problems []models.ContestProblem) []dto.ProblemData {
	data := make([]dto.ProblemData, 0, len(problems))
	for i, cp := range problems {
		data = append(data, dto.ProblemData{
			ID:        strconv.FormatUint(uint64(cp.ID), 10),
			Label:     s.label(i),
			Name:      cp.Problem.Name,
			Ordinal:   i,
			TimeLimit: cp.Problem.TimeLimit,
			Points:    cp.Points,
		})
	}

	return data
}

func (s *resolverService) label(index int) string {
	if s.labeler != nil {
		if label, err := s.labeler(index); err == nil && label != "" {
			return label
		}
	}

	return utils.ProblemLabel(index)
}

func (s *resolverService) Teams(ctx context.Context, contestKey string) ([]dto.TeamData, error) {
	contest, err := s.contestByKey(ctx, contestKey)
	if err != nil {
		return nil, err
	}

	participations, err := s.participations.ListRanked(ctx, contest.ID)
	if err != nil {
		return nil, err
	}

	return teamData(participations), nil
}

func teamData(participations []models.ContestParticipation) []dto.TeamData {
	teams := make([]dto.TeamData, 0, len(participations))
	for _, p := range participations {
		team := dto.TeamData{
			ID:          strconv.FormatUint(uint64(p.ID), 10),
			Name:        p.User.Username,
			DisplayName: p.User.DisplayName(),
			Members: []dto.TeamMemberData{{
				ID:   strconv.FormatUint(uint64(p.UserID), 10),
				Name: p.User.DisplayName(),
			}},
		}
		if p.User.OrganizationID != nil {
			id := strconv.FormatUint(uint64(*p.User.OrganizationID), 10)
			team.OrganizationID = &id
		}
		teams = append(teams, team)
	}

	return teams
}

func (s *resolverService) Organizations(ctx context.Context, contestKey string) ([]dto.OrganizationData, error) {
	contest, err := s.contestByKey(ctx, contestKey)
	if err != nil {
		return nil, err
	}

	participations, err := s.participations.ListRanked(ctx, contest.ID)
	if err != nil {
		return nil, err
	}

	return organizationData(participations), nil
}

// organizationData deduplicates the organizations of the contest's
// participants, keeping first-seen order.
func organizationData(participations []models.ContestParticipation) []dto.OrganizationData {
	seen := map[uint]bool{}
	organizations := make([]dto.OrganizationData, 0)
	for _, p := range participations {
		org := p.User.Organization
		if org == nil || seen[org.ID] {
			continue
		}
		seen[org.ID] = true
		organizations = append(organizations, dto.OrganizationData{
			ID:         strconv.FormatUint(uint64(org.ID), 10),
			Name:       org.DisplayName(),
			FormalName: org.Name,
		})
	}

	return organizations
}

func (s *resolverService) Languages(ctx context.Context, contestKey string) ([]dto.LanguageData, error) {
	contest, err := s.contestByKey(ctx, contestKey)
	if err != nil {
		return nil, err
	}

	problems, err := s.contests.ListProblems(ctx, contest.ID)
	if err != nil {
		return nil, err
	}

	// Languages allowed on the contest's problems; the full catalog when no
	// problem restricts them.
	seen := map[uint]bool{}
	languages := make([]models.Language, 0)
	for _, cp := range problems {
		for _, lang := range cp.Problem.AllowedLanguages {
			if seen[lang.ID] {
				continue
			}
			seen[lang.ID] = true
			languages = append(languages, lang)
		}
	}
	if len(languages) == 0 {
		languages, err = s.contests.ListAllLanguages(ctx)
		if err != nil {
			return nil, err
		}
	}

	return languageData(languages), nil
}

func languageData(languages []models.Language) []dto.LanguageData {
	data := make([]dto.LanguageData, 0, len(languages))
	for _, lang := range languages {
		entry := dto.LanguageData{
			ID:   lang.Key,
			Name: lang.Name,
		}
		if lang.Extension != "" {
			entry.Extensions = []string{lang.Extension}
		}
		data = append(data, entry)
	}

	return data
}

func (s *resolverService) JudgementTypes(_ context.Context) []dto.JudgementTypeData {
	types := make([]dto.JudgementTypeData, 0, len(models.ResultNames))
	for _, result := range models.ResultNames {
		types = append(types, dto.JudgementTypeData{
			ID:      result.Code,
			Name:    result.Name,
			Penalty: models.CarriesPenalty(result.Code),
			Solved:  result.Code == models.ResultAccepted,
		})
	}

	return types
}

func (s *resolverService) scoreboardCacheKey(contestKey string) string {
	return "scoreboard:" + contestKey
}

func (s *resolverService) Scoreboard(ctx context.Context, contestKey string) (dto.ScoreboardData, error) {
	contest, err := s.contestByKey(ctx, contestKey)
	if err != nil {
		return dto.ScoreboardData{}, err
	}
	if !contest.ScoreboardVisible {
		return dto.ScoreboardData{}, ErrScoreboardHidden
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, s.scoreboardCacheKey(contestKey)).Bytes()
		if err == nil {
			var data dto.ScoreboardData
			if json.Unmarshal(cached, &data) == nil {
				return data, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("contest", contestKey).Msg("scoreboard cache read failed")
		}
	}

	data, err := s.buildScoreboard(ctx, contest)
	if err != nil {
		return dto.ScoreboardData{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(data); err == nil {
			if err := s.cache.Set(ctx, s.scoreboardCacheKey(contestKey), payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Str("contest", contestKey).Msg("scoreboard cache write failed")
			}
		}
	}

	return data, nil
}

func (s *resolverService) buildScoreboard(ctx context.Context, contest models.Contest) (dto.ScoreboardData, error) {
	problems, err := s.contests.ListProblems(ctx, contest.ID)
	if err != nil {
		return dto.ScoreboardData{}, err
	}

	participations, err := s.participations.ListRanked(ctx, contest.ID)
	if err != nil {
		return dto.ScoreboardData{}, err
	}

	firstSolvers := make(map[uint]uint, len(problems))
	for _, cp := range problems {
		solver, err := s.submissions.FirstSolver(ctx, cp.ID, cp.Points)
		if err != nil {
			return dto.ScoreboardData{}, err
		}
		if solver != 0 {
			firstSolvers[cp.ID] = solver
		}
	}

	now := s.now()
	elapsed := now.Sub(contest.StartTime)
	if total := contest.Duration(); elapsed > total {
		elapsed = total
	}
	data := dto.ScoreboardData{
		Time:        now.UTC().Format(time.RFC3339),
		ContestTime: utils.FormatISODuration(elapsed),
		State:       scoreboardState(contest, now),
		Rows:        make([]dto.ScoreboardRow, 0, len(participations)),
	}

	for rank, p := range participations {
		row := dto.ScoreboardRow{
			Rank:   rank + 1,
			TeamID: strconv.FormatUint(uint64(p.ID), 10),
			Score: dto.ScoreboardScore{
				NumSolved: 0,
				TotalTime: p.CumTime,
			},
			Problems: make([]dto.ScoreboardProblemResult, 0, len(problems)),
		}

		for _, cp := range problems {
			cell := breakdownCell(p.FormatData, cp.ID)
			result := dto.ScoreboardProblemResult{
				ProblemID:  strconv.FormatUint(uint64(cp.ID), 10),
				NumPending: cell.pending,
				Incorrect:  cell.wrong,
				Solved:     cell.solved,
			}
			result.NumJudged = cell.wrong
			if cell.solved {
				result.NumJudged++
				row.Score.NumSolved++
				result.IsFirstToSolve = firstSolvers[cp.ID] == p.ID
				result.Time = utils.FormatISODuration(time.Duration(cell.seconds * float64(time.Second)))
			}
			row.Problems = append(row.Problems, result)
		}

		data.Rows = append(data.Rows, row)
	}

	return data, nil
}

// scoreboardState derives the freeze flags purely from wall-clock time.
func scoreboardState(contest models.Contest, now time.Time) dto.ScoreboardState {
	ended := !now.Before(contest.EndTime)
	state := dto.ScoreboardState{
		Started:   !now.Before(contest.StartTime),
		Ended:     ended,
		Finalized: ended,
		Thawed:    ended,
	}
	if freeze := contest.FreezeTime(); freeze != nil {
		state.Frozen = !now.Before(*freeze)
	}

	return state
}

type cellSummary struct {
	solved  bool
	wrong   int
	pending int
	seconds float64
}

// breakdownCell reads one problem cell from the stored scoring breakdown.
// Values come back from JSON as float64.
func breakdownCell(breakdown map[string]interface{}, problemID uint) cellSummary {
	raw, ok := breakdown[strconv.FormatUint(uint64(problemID), 10)]
	if !ok {
		return cellSummary{}
	}
	cell, ok := raw.(map[string]interface{})
	if !ok {
		return cellSummary{}
	}

	summary := cellSummary{}
	if v, ok := cell["solved"].(bool); ok {
		summary.solved = v
	}
	if v, ok := cell["wrong"].(float64); ok {
		summary.wrong = int(v)
	}
	if v, ok := cell["pending"].(float64); ok {
		summary.pending = int(v)
	}
	if v, ok := cell["time"].(float64); ok {
		summary.seconds = v
	}

	return summary
}

func (s *resolverService) EventFeed(ctx context.Context, contestKey string, w io.Writer) error {
	contest, err := s.contestByKey(ctx, contestKey)
	if err != nil {
		return err
	}

	participations, err := s.participations.ListRanked(ctx, contest.ID)
	if err != nil {
		return err
	}
	problems, err := s.contests.ListProblems(ctx, contest.ID)
	if err != nil {
		return err
	}
	submissions, err := s.submissions.ListByContest(ctx, contest.ID)
	if err != nil {
		return err
	}

	feed := feedWriter{encoder: json.NewEncoder(w)}

	// Configuration first, then the submission history in judge order, so a
	// one-shot replay sees every referenced entity before its references.
	if err := feed.emit("contest", contest.Key, contestData(contest)); err != nil {
		return err
	}
	for _, org := range organizationData(participations) {
		if err := feed.emit("organizations", org.ID, org); err != nil {
			return err
		}
	}
	for _, team := range teamData(participations) {
		if err := feed.emit("teams", team.ID, team); err != nil {
			return err
		}
	}
	for _, jt := range s.JudgementTypes(ctx) {
		if err := feed.emit("judgement-types", jt.ID, jt); err != nil {
			return err
		}
	}
	languages, err := s.Languages(ctx, contestKey)
	if err != nil {
		return err
	}
	for _, lang := range languages {
		if err := feed.emit("languages", lang.ID, lang); err != nil {
			return err
		}
	}
	for _, problem := range s.problemData(problems) {
		if err := feed.emit("problems", problem.ID, problem); err != nil {
			return err
		}
	}

	for _, cs := range submissions {
		submission := submissionEvent(contest, cs)
		if err := feed.emit("submissions", submission.ID, submission); err != nil {
			return err
		}
		if cs.Submission.JudgedDate == nil || cs.Submission.Result == "" {
			continue
		}
		judgement := judgementEvent(contest, cs)
		if err := feed.emit("judgements", judgement.ID, judgement); err != nil {
			return err
		}
	}

	return nil
}

type feedWriter struct {
	encoder *json.Encoder
	next    int
}

func (f *feedWriter) emit(eventType, id string, data interface{}) error {
	f.next++

	return f.encoder.Encode(dto.FeedEvent{
		Type: eventType,
		ID:   fmt.Sprintf("%s-%d", eventType, f.next),
		Op:   "create",
		Data: data,
	})
}

func submissionEvent(contest models.Contest, cs models.ContestSubmission) dto.SubmissionEventData {
	event := dto.SubmissionEventData{
		ID:          strconv.FormatUint(uint64(cs.SubmissionID), 10),
		ProblemID:   strconv.FormatUint(uint64(cs.ProblemID), 10),
		TeamID:      strconv.FormatUint(uint64(cs.ParticipationID), 10),
		Files:       []string{},
		ContestTime: utils.FormatHMS(cs.Submission.Date.Sub(contest.StartTime)),
		Time:        cs.Submission.Date.UTC().Format(time.RFC3339),
	}
	if cs.Submission.Language != nil {
		key := cs.Submission.Language.Key
		event.LanguageID = &key
	}

	return event
}

func judgementEvent(contest models.Contest, cs models.ContestSubmission) dto.JudgementEventData {
	judged := *cs.Submission.JudgedDate

	return dto.JudgementEventData{
		ID:               strconv.FormatUint(uint64(cs.SubmissionID), 10),
		SubmissionID:     strconv.FormatUint(uint64(cs.SubmissionID), 10),
		JudgementTypeID:  cs.Submission.Result,
		MaxRunTime:       cs.Submission.RunTime,
		StartTime:        cs.Submission.Date.UTC().Format(time.RFC3339),
		StartContestTime: utils.FormatHMS(cs.Submission.Date.Sub(contest.StartTime)),
		EndTime:          judged.UTC().Format(time.RFC3339),
		EndContestTime:   utils.FormatHMS(judged.Sub(contest.StartTime)),
	}
}
