package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/praxis-lms/grading-api/internal/dto"
	"github.com/praxis-lms/grading-api/internal/models"
)

func TestReconcileTestCasesActivatesNewNames(t *testing.T) {
	registry, changed := ReconcileTestCases(3, nil, []string{"testAdd", "testSub"}, false)

	require.Len(t, registry, 2)
	require.Len(t, changed, 2)
	for _, testCase := range registry {
		require.Equal(t, uint(3), testCase.ExerciseID)
		require.True(t, testCase.Active)
		require.Equal(t, 1.0, testCase.Weight)
		require.Equal(t, 1.0, testCase.BonusMultiplier)
	}
}

func TestReconcileTestCasesDeactivatesMissingNames(t *testing.T) {
	existing := []models.TestCase{
		{ID: 1, ExerciseID: 3, Name: "testAdd", Weight: 2, Active: true},
		{ID: 2, ExerciseID: 3, Name: "testSub", Weight: 1, Active: true},
	}

	registry, changed := ReconcileTestCases(3, existing, []string{"testAdd"}, false)

	require.Len(t, registry, 2)
	require.Len(t, changed, 1)
	require.Equal(t, "testSub", changed[0].Name)
	require.False(t, changed[0].Active)
	// Deactivation keeps the configured weight for a later reactivation.
	require.Equal(t, 1.0, changed[0].Weight)
}

func TestReconcileTestCasesReactivatesReturningNames(t *testing.T) {
	existing := []models.TestCase{
		{ID: 1, ExerciseID: 3, Name: "testAdd", Weight: 2.5, Active: false},
	}

	registry, changed := ReconcileTestCases(3, existing, []string{"testAdd"}, false)

	require.Len(t, changed, 1)
	require.True(t, changed[0].Active)
	require.Equal(t, 2.5, registry[0].Weight, "reactivation must not reset configuration")
}

func TestReconcileTestCasesFrozenRegistryUnchanged(t *testing.T) {
	existing := []models.TestCase{
		{ID: 1, ExerciseID: 3, Name: "testAdd", Weight: 1, Active: true},
	}

	registry, changed := ReconcileTestCases(3, existing, []string{"testAdd", "testNew"}, true)

	require.Nil(t, changed)
	require.Equal(t, existing, registry)
}

type fakeExerciseRepo struct {
	exercise models.Exercise
	missing  bool
	updated  *models.Exercise
}

func (f *fakeExerciseRepo) GetByID(ctx context.Context, id uint) (models.Exercise, error) {
	if f.missing {
		return models.Exercise{}, gorm.ErrRecordNotFound
	}
	return f.exercise, nil
}

func (f *fakeExerciseRepo) Update(ctx context.Context, exercise *models.Exercise) error {
	f.updated = exercise
	return nil
}

type fakeTestCaseRepo struct {
	testCases []models.TestCase
	updates   []models.TestCase
}

func (f *fakeTestCaseRepo) ListByExercise(ctx context.Context, exerciseID uint) ([]models.TestCase, error) {
	return f.testCases, nil
}

func (f *fakeTestCaseRepo) GetByID(ctx context.Context, exerciseID, id uint) (models.TestCase, error) {
	for _, testCase := range f.testCases {
		if testCase.ID == id && testCase.ExerciseID == exerciseID {
			return testCase, nil
		}
	}
	return models.TestCase{}, gorm.ErrRecordNotFound
}

func (f *fakeTestCaseRepo) Update(ctx context.Context, testCase *models.TestCase) error {
	f.updates = append(f.updates, *testCase)
	return nil
}

type fakeResultRepo struct {
	results   []models.Result
	byCommit  map[string]models.Result
	updates   []models.Result
	updateErr error
}

func (f *fakeResultRepo) GetByID(ctx context.Context, id uint) (models.Result, error) {
	for _, result := range f.results {
		if result.ID == id {
			return result, nil
		}
	}
	return models.Result{}, gorm.ErrRecordNotFound
}

func (f *fakeResultRepo) FindByParticipationAndCommit(ctx context.Context, participationID uint, commitHash string) (models.Result, error) {
	if result, ok := f.byCommit[commitHash]; ok {
		return result, nil
	}
	return models.Result{}, gorm.ErrRecordNotFound
}

func (f *fakeResultRepo) ListLatestByExercise(ctx context.Context, exerciseID uint) ([]models.Result, error) {
	return f.results, nil
}

func (f *fakeResultRepo) Update(ctx context.Context, result *models.Result) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, *result)
	return nil
}

func TestTestCaseServiceUpdateAdjustsWeights(t *testing.T) {
	testCases := &fakeTestCaseRepo{testCases: []models.TestCase{
		{ID: 5, ExerciseID: 3, Name: "testAdd", Weight: 1, BonusMultiplier: 1, Active: true},
	}}
	exercises := &fakeExerciseRepo{exercise: models.Exercise{ID: 3}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewTestCaseService(testCases, exercises, &fakeResultRepo{}, validate, testLogger())

	weight := 4.0
	response, err := svc.Update(context.Background(), 3, 5, dto.TestCaseUpdateRequest{Weight: &weight})
	require.NoError(t, err)
	require.Equal(t, 4.0, response.Weight)
	require.Len(t, testCases.updates, 1)
}

func TestTestCaseServiceUpdateUnknownCase(t *testing.T) {
	testCases := &fakeTestCaseRepo{}
	exercises := &fakeExerciseRepo{exercise: models.Exercise{ID: 3}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewTestCaseService(testCases, exercises, &fakeResultRepo{}, validate, testLogger())

	weight := 2.0
	_, err := svc.Update(context.Background(), 3, 99, dto.TestCaseUpdateRequest{Weight: &weight})
	require.ErrorIs(t, err, ErrTestCaseNotFound)
}

func TestTestCaseServiceSetFrozen(t *testing.T) {
	exercises := &fakeExerciseRepo{exercise: models.Exercise{ID: 3}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewTestCaseService(&fakeTestCaseRepo{}, exercises, &fakeResultRepo{}, validate, testLogger())

	require.NoError(t, svc.SetFrozen(context.Background(), 3, true))
	require.NotNil(t, exercises.updated)
	require.True(t, exercises.updated.TestsFrozen)
}

func TestTestCaseServiceRescoreRecomputesLatestResults(t *testing.T) {
	caseID := uint(5)
	otherID := uint(6)
	testCases := &fakeTestCaseRepo{testCases: []models.TestCase{
		{ID: caseID, ExerciseID: 3, Name: "testAdd", Weight: 3, BonusMultiplier: 1, Active: true},
		{ID: otherID, ExerciseID: 3, Name: "testSub", Weight: 1, BonusMultiplier: 1, Active: true},
	}}
	results := &fakeResultRepo{results: []models.Result{
		{
			ID:              11,
			ParticipationID: 21,
			Score:           50,
			Feedbacks: []models.Feedback{
				{Type: models.FeedbackTypeAutomatic, TestCaseID: &caseID, Positive: true},
				{Type: models.FeedbackTypeAutomatic, TestCaseID: &otherID, Positive: false},
			},
		},
	}}
	exercises := &fakeExerciseRepo{exercise: models.Exercise{ID: 3}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewTestCaseService(testCases, exercises, results, validate, testLogger())

	updated, err := svc.TriggerRescore(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, 1, updated)
	require.Len(t, results.updates, 1)
	require.InDelta(t, 75.0, results.updates[0].Score, 0.0001)
	require.False(t, results.updates[0].Successful)
}

func TestTestCaseServiceRescoreMatchesFirstRunFeedbackByName(t *testing.T) {
	testCases := &fakeTestCaseRepo{testCases: []models.TestCase{
		{ID: 5, ExerciseID: 3, Name: "testAdd", Weight: 1, BonusMultiplier: 1, Active: true},
	}}
	// The run that activated testAdd wrote its feedback before the case had an
	// id, so the stored entry references the case by name only.
	results := &fakeResultRepo{results: []models.Result{
		{
			ID:              11,
			ParticipationID: 21,
			Score:           100,
			Successful:      true,
			Feedbacks: []models.Feedback{
				{Type: models.FeedbackTypeAutomatic, Text: "testAdd", Positive: true},
			},
		},
	}}
	exercises := &fakeExerciseRepo{exercise: models.Exercise{ID: 3}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewTestCaseService(testCases, exercises, results, validate, testLogger())

	updated, err := svc.TriggerRescore(context.Background(), 3)
	require.NoError(t, err)
	require.Zero(t, updated, "a result whose inputs did not change must not be rewritten")
	require.Empty(t, results.updates)
}

func TestTestCaseServiceRescoreFirstRunFeedbackFollowsWeightChange(t *testing.T) {
	caseID := uint(6)
	testCases := &fakeTestCaseRepo{testCases: []models.TestCase{
		{ID: 5, ExerciseID: 3, Name: "testAdd", Weight: 3, BonusMultiplier: 1, Active: true},
		{ID: caseID, ExerciseID: 3, Name: "testSub", Weight: 1, BonusMultiplier: 1, Active: true},
	}}
	results := &fakeResultRepo{results: []models.Result{
		{
			ID:              11,
			ParticipationID: 21,
			Score:           50,
			Feedbacks: []models.Feedback{
				{Type: models.FeedbackTypeAutomatic, Text: "testAdd", Positive: true},
				{Type: models.FeedbackTypeAutomatic, TestCaseID: &caseID, Positive: false},
				{Type: models.FeedbackTypeAutomatic, Text: "sca:style", Positive: false, Credits: -2},
			},
		},
	}}
	exercises := &fakeExerciseRepo{exercise: models.Exercise{ID: 3}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewTestCaseService(testCases, exercises, results, validate, testLogger())

	updated, err := svc.TriggerRescore(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, 1, updated)
	require.Len(t, results.updates, 1)
	require.InDelta(t, 75.0, results.updates[0].Score, 0.0001)
}

func TestTestCaseServiceRescoreSkipsUnchangedScores(t *testing.T) {
	caseID := uint(5)
	testCases := &fakeTestCaseRepo{testCases: []models.TestCase{
		{ID: caseID, ExerciseID: 3, Name: "testAdd", Weight: 1, BonusMultiplier: 1, Active: true},
	}}
	results := &fakeResultRepo{results: []models.Result{
		{
			ID:              11,
			ParticipationID: 21,
			Score:           100,
			Feedbacks: []models.Feedback{
				{Type: models.FeedbackTypeAutomatic, TestCaseID: &caseID, Positive: true},
			},
		},
	}}
	exercises := &fakeExerciseRepo{exercise: models.Exercise{ID: 3}}
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewTestCaseService(testCases, exercises, results, validate, testLogger())

	updated, err := svc.TriggerRescore(context.Background(), 3)
	require.NoError(t, err)
	require.Zero(t, updated)
	require.Empty(t, results.updates)
}
