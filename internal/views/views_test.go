package views_test

import (
	"context"
	"errors"
	"testing"
	"time"

	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/centraunit/vmkit"
	"github.com/centraunit/vmkit/internal/config"
	"github.com/centraunit/vmkit/internal/notes"
	"github.com/centraunit/vmkit/internal/views"
	"github.com/centraunit/vmkit/mock"
	"github.com/centraunit/vmkit/observable"
)

type navigatorMock struct {
	tmock.Mock
}

func (n *navigatorMock) Navigate(_ context.Context, route string, opts any) error {
	return n.Called(route, opts).Error(0)
}

func (n *navigatorMock) Back(context.Context) error {
	return n.Called().Error(0)
}

type ViewsTestSuite struct {
	suite.Suite
	ctx       context.Context
	c         *vmkit.Container
	ctrl      *vmkit.Controller
	presenter *mock.MockPresenter
	nav       *navigatorMock
	repo      notes.Repository
	repoBuilt int
}

func (s *ViewsTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.c = vmkit.New(vmkit.WithObservables(observable.NewRegistry()))
	s.ctrl = vmkit.NewController()
	s.presenter = &mock.MockPresenter{}
	s.nav = &navigatorMock{}
	s.repoBuilt = 0

	s.Require().NoError(vmkit.Install(s.c, s.ctrl, s.presenter))
	s.Require().NoError(vmkit.Provide(s.c, vmkit.Singleton, func() (notes.Repository, error) {
		s.repoBuilt++
		return notes.NewMemoryRepository(), nil
	}))
	s.Require().NoError(vmkit.ProvideValue[views.Navigator](s.c, s.nav))
	s.Require().NoError(views.Register(s.c))

	repo, err := vmkit.Resolve[notes.Repository](s.c)
	s.Require().NoError(err)
	s.repo = repo
}

func (s *ViewsTestSuite) TearDownTest() {
	s.ctrl.Close()
}

// answerConfirms makes every confirm dialog answer yes or no.
func (s *ViewsTestSuite) answerConfirms(yes bool) {
	s.presenter.ExpectedCalls = nil
	s.presenter.On("Present", tmock.Anything, tmock.AnythingOfType("*vmkit.ConfirmDialog")).Run(func(args tmock.Arguments) {
		s.NoError(args.Get(1).(*vmkit.ConfirmDialog).Answer(yes))
	}).Return(nil)
}

func (s *ViewsTestSuite) addNote(content string) notes.Note {
	n, err := s.repo.Add(s.ctx, notes.Note{Content: content})
	s.Require().NoError(err)
	return n
}

func (s *ViewsTestSuite) detail() *views.NoteDetail {
	d, err := vmkit.Resolve[*views.NoteDetail](s.c)
	s.Require().NoError(err)
	return d
}

func (s *ViewsTestSuite) openDetail(id int) *views.NoteDetail {
	d := s.detail()
	outcome, err := vmkit.TryActivate[views.DetailOptions](s.ctx, s.ctrl, d, views.DetailOptions{ID: id})
	s.Require().NoError(err)
	s.Require().Equal(vmkit.OutcomeCompleted, outcome)
	return d
}

func (s *ViewsTestSuite) openList(mode string) *views.NoteList {
	l, err := vmkit.Resolve[*views.NoteList](s.c)
	s.Require().NoError(err)
	_, err = vmkit.TryActivate[views.ListOptions](s.ctx, s.ctrl, l, views.ListOptions{EditMode: mode})
	s.Require().NoError(err)
	return l
}

func (s *ViewsTestSuite) TestDetailsShareRepositoryButNotState() {
	first := s.detail()
	second := s.detail()
	s.NotSame(first, second)
	s.NotSame(first.NoteModel, second.NoteModel)
	s.Equal(1, s.repoBuilt)

	_, err := vmkit.TryActivate[views.DetailOptions](s.ctx, s.ctrl, second, views.DetailOptions{ID: -1})
	s.Require().NoError(err)

	s.Equal("New note", second.Heading())
	s.True(second.HasUnsavedChanges())
	s.True(second.NoteModel.Note().IsNew())

	s.Equal(vmkit.StateCreated, first.Lifecycle().State())
	s.Empty(first.Heading())
	s.False(first.HasUnsavedChanges())
}

func (s *ViewsTestSuite) TestEditExistingNote() {
	n := s.addNote("groceries")
	d := s.openDetail(n.ID)

	s.Equal("Edit note", d.Heading())
	s.False(d.HasUnsavedChanges())
	s.Equal("groceries", d.NoteModel.Content())
	s.Same(d, d.NoteModel.Owner())

	d.NoteModel.SetContent("groceries and bread")
	s.True(d.HasUnsavedChanges())

	s.nav.On("Back").Return(nil).Once()
	s.NoError(d.NoteModel.Save(s.ctx))
	s.False(d.HasUnsavedChanges())
	s.False(d.NoteModel.Dirty())
	s.nav.AssertExpectations(s.T())

	stored, err := s.repo.GetByID(s.ctx, n.ID)
	s.NoError(err)
	s.Equal("groceries and bread", stored.Content)
}

func (s *ViewsTestSuite) TestRevertingEditClearsUnsaved() {
	n := s.addNote("draft")
	d := s.openDetail(n.ID)

	d.NoteModel.SetContent("changed")
	s.True(d.HasUnsavedChanges())

	s.nav.On("Back").Return(nil).Once()
	s.NoError(d.NoteModel.Cancel(s.ctx))
	s.Equal("draft", d.NoteModel.Content())
	s.False(d.HasUnsavedChanges())
}

func (s *ViewsTestSuite) TestMissingNoteFailsActivation() {
	d := s.detail()
	_, err := vmkit.TryActivate[views.DetailOptions](s.ctx, s.ctrl, d, views.DetailOptions{ID: 42})

	var notFound *notes.NotFoundError
	s.ErrorAs(err, &notFound)
	s.Equal(vmkit.StateFailed, d.Lifecycle().State())
}

func (s *ViewsTestSuite) TestLeavingUnsavedNoteSavesWhenConfirmed() {
	d := s.openDetail(-1)
	d.NoteModel.SetContent("remember the milk")
	s.answerConfirms(true)

	outcome, err := s.ctrl.TryDeactivate(s.ctx, d)
	s.NoError(err)
	s.Equal(vmkit.OutcomeCompleted, outcome)
	s.Equal(vmkit.StateDeactivated, d.NoteModel.Lifecycle().State())

	list, err := s.repo.List(s.ctx, notes.Query{})
	s.NoError(err)
	s.Require().Len(list, 1)
	s.Equal("remember the milk", list[0].Content)

	dlg := s.presenter.Calls[0].Arguments.Get(1).(*vmkit.ConfirmDialog)
	s.Equal("Save changes", dlg.Title())
	s.Equal("Do you want to save the note before leaving?", dlg.Message())
}

func (s *ViewsTestSuite) TestLeavingUnsavedNoteStaysWhenDeclined() {
	d := s.openDetail(-1)
	s.answerConfirms(false)

	outcome, err := s.ctrl.TryDeactivate(s.ctx, d)
	s.NoError(err)
	s.Equal(vmkit.OutcomeCancelled, outcome)
	s.Equal(vmkit.StateActivated, d.Lifecycle().State())

	list, err := s.repo.List(s.ctx, notes.Query{})
	s.NoError(err)
	s.Empty(list)
}

func (s *ViewsTestSuite) TestCleanDetailLeavesWithoutAsking() {
	n := s.addNote("clean")
	d := s.openDetail(n.ID)

	outcome, err := s.ctrl.TryDeactivate(s.ctx, d)
	s.NoError(err)
	s.Equal(vmkit.OutcomeCompleted, outcome)
	s.presenter.AssertNotCalled(s.T(), "Present", tmock.Anything, tmock.Anything)
}

func (s *ViewsTestSuite) TestRemoveFromDetail() {
	n := s.addNote("obsolete")
	d := s.openDetail(n.ID)
	s.answerConfirms(true)
	s.nav.On("Back").Return(nil).Once()

	removed, err := d.NoteModel.Remove(s.ctx)
	s.NoError(err)
	s.True(removed)

	_, err = s.repo.GetByID(s.ctx, n.ID)
	s.Error(err)
}

func (s *ViewsTestSuite) TestRemoveDeclinedKeepsNote() {
	n := s.addNote("keep me")
	d := s.openDetail(n.ID)
	s.answerConfirms(false)

	removed, err := d.Remove(s.ctx)
	s.NoError(err)
	s.False(removed)

	_, err = s.repo.GetByID(s.ctx, n.ID)
	s.NoError(err)
	s.nav.AssertNotCalled(s.T(), "Back")
}

func (s *ViewsTestSuite) TestDetailAddNavigatesToNewNote() {
	d := s.openDetail(-1)
	s.nav.On("Navigate", views.RouteNoteDetail, views.DetailOptions{ID: -1}).Return(nil).Once()
	s.NoError(d.Add(s.ctx))
	s.nav.AssertExpectations(s.T())
}

func (s *ViewsTestSuite) TestNoteModelComputedProperties() {
	m, err := vmkit.Resolve[*views.NoteViewModel](s.c)
	s.Require().NoError(err)
	_, err = vmkit.TryActivate[views.NoteOptions](s.ctx, s.ctrl, m, views.NoteOptions{
		Note: notes.Note{ID: 1, Content: "  first line\nsecond line"},
	})
	s.Require().NoError(err)

	s.Equal("first line", m.Title())
	s.False(m.Dirty())

	var titles []any
	m.Watch("title", func(_ string, v any) { titles = append(titles, v) })
	m.SetContent("")
	s.Equal("(empty)", m.Title())
	s.True(m.Dirty())
	s.Equal([]any{"(empty)"}, titles)

	s.False(m.CanEdit())
	s.NoError(m.Edit(s.ctx))
}

func (s *ViewsTestSuite) TestReadonlyNoteIgnoresEdits() {
	m, err := vmkit.Resolve[*views.NoteViewModel](s.c)
	s.Require().NoError(err)
	_, err = vmkit.TryActivate[views.NoteOptions](s.ctx, s.ctrl, m, views.NoteOptions{
		Note:     notes.Note{ID: 1, Content: "fixed"},
		Readonly: true,
	})
	s.Require().NoError(err)

	m.SetContent("changed")
	s.Equal("fixed", m.Content())
	s.True(m.Readonly())
}

func (s *ViewsTestSuite) seedThree() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range []string{"banana", "apple", "cherry"} {
		_, err := s.repo.Add(s.ctx, notes.Note{Content: c, Modified: base.Add(time.Duration(i) * time.Hour)})
		s.Require().NoError(err)
	}
}

func listContents(l *views.NoteList) []string {
	var out []string
	for _, m := range l.NoteModels() {
		out = append(out, m.Content())
	}
	return out
}

func (s *ViewsTestSuite) TestListLoadsAndSorts() {
	s.seedThree()
	l := s.openList(config.EditModeSeparatePage)

	s.Equal([]string{"banana", "apple", "cherry"}, listContents(l))

	l.ToggleSortDirection()
	s.Equal([]string{"cherry", "apple", "banana"}, listContents(l))

	l.ToggleSortProp()
	s.Equal(notes.PropContent, l.Order().Prop)
	s.Equal([]string{"cherry", "banana", "apple"}, listContents(l))

	l.ToggleSortProp()
	s.Equal(notes.PropModified, l.Order().Prop)
}

func (s *ViewsTestSuite) TestListEditModes() {
	s.seedThree()

	separate := s.openList(config.EditModeSeparatePage)
	s.False(separate.AllowEditing())
	s.Equal("Switch to same-page edit-mode", separate.ToggleEditModeButtonText())
	for _, m := range separate.NoteModels() {
		s.True(m.Readonly())
		s.True(m.CanEdit())
		s.False(m.CanSave())
		s.True(m.CanRemove())
	}

	same := s.openList(config.EditModeSamePage)
	s.True(same.AllowEditing())
	s.Equal("Switch to separate-page edit-mode", same.ToggleEditModeButtonText())
	for _, m := range same.NoteModels() {
		s.False(m.Readonly())
		s.False(m.CanEdit())
		s.True(m.CanSave())
	}

	s.nav.On("Navigate", views.RouteNotes, tmock.MatchedBy(func(o views.ListOptions) bool {
		return o.EditMode == config.EditModeSeparatePage
	})).Return(nil).Once()
	s.NoError(same.ToggleEditMode(s.ctx))
	s.nav.AssertExpectations(s.T())
}

func (s *ViewsTestSuite) TestListEditNavigatesToDetail() {
	s.seedThree()
	l := s.openList(config.EditModeSeparatePage)
	target := l.NoteModels()[0]

	s.nav.On("Navigate", views.RouteNoteDetail, views.DetailOptions{ID: target.Note().ID}).Return(nil).Once()
	s.NoError(target.Edit(s.ctx))
	s.nav.AssertExpectations(s.T())
}

func (s *ViewsTestSuite) TestListAddAndSaveInPlace() {
	l := s.openList(config.EditModeSamePage)

	s.NoError(l.Add(s.ctx))
	s.Require().Len(l.NoteModels(), 1)
	s.True(l.HasUnsavedChanges())

	m := l.NoteModels()[0]
	m.SetContent("in place")
	s.NoError(m.Save(s.ctx))
	s.False(l.HasUnsavedChanges())
	s.False(m.Note().IsNew())

	stored, err := s.repo.GetByID(s.ctx, m.Note().ID)
	s.NoError(err)
	s.Equal("in place", stored.Content)
}

func (s *ViewsTestSuite) TestListAddNavigatesInSeparateMode() {
	l := s.openList(config.EditModeSeparatePage)
	s.nav.On("Navigate", views.RouteNoteDetail, views.DetailOptions{ID: -1}).Return(nil).Once()

	s.NoError(l.Add(s.ctx))
	s.Empty(l.NoteModels())
	s.nav.AssertExpectations(s.T())
}

func (s *ViewsTestSuite) TestListRemove() {
	s.seedThree()
	l := s.openList(config.EditModeSeparatePage)
	victim := l.NoteModels()[1]
	s.answerConfirms(true)

	removed, err := victim.Remove(s.ctx)
	s.NoError(err)
	s.True(removed)
	s.Len(l.NoteModels(), 2)
	s.Equal(vmkit.StateDeactivated, victim.Lifecycle().State())

	dlg := s.presenter.Calls[0].Arguments.Get(1).(*vmkit.ConfirmDialog)
	s.Equal("Delete?", dlg.Title())
	s.Equal("Are you sure you want to delete this note?", dlg.Message())
}

func (s *ViewsTestSuite) TestListDeactivateReleasesPartials() {
	s.seedThree()
	l := s.openList(config.EditModeSeparatePage)
	models := l.NoteModels()

	_, err := s.ctrl.TryDeactivate(s.ctx, l)
	s.NoError(err)
	for _, m := range models {
		s.Equal(vmkit.StateDeactivated, m.Lifecycle().State())
	}
}

func (s *ViewsTestSuite) TestListLoadFailureDeactivatesLoadedPartials() {
	s.seedThree()
	errBuild := errors.New("partial unavailable")
	var built []*views.NoteViewModel
	s.Require().NoError(vmkit.Provide(s.c, vmkit.Transient, func() (*views.NoteViewModel, error) {
		if len(built) == 2 {
			return nil, errBuild
		}
		m, err := views.NewNoteViewModel()
		built = append(built, m)
		return m, err
	}))

	l, err := vmkit.Resolve[*views.NoteList](s.c)
	s.Require().NoError(err)
	_, err = vmkit.TryActivate[views.ListOptions](s.ctx, s.ctrl, l, views.ListOptions{})

	s.ErrorIs(err, errBuild)
	s.Equal(vmkit.StateFailed, l.Lifecycle().State())
	s.Require().Len(built, 2)
	for _, m := range built {
		s.Equal(vmkit.StateDeactivated, m.Lifecycle().State())
	}
}

func (s *ViewsTestSuite) TestHomeActivatesTerms() {
	h, err := vmkit.Resolve[*views.Home](s.c)
	s.Require().NoError(err)

	_, err = vmkit.TryActivate[views.NoOptions](s.ctx, s.ctrl, h, views.NoOptions{})
	s.Require().NoError(err)
	s.Equal("Home", h.Heading())
	s.Equal(vmkit.StateActivated, h.Terms.Lifecycle().State())
	s.NotEmpty(h.Terms.Text())
	s.False(h.Terms.Accepted())
	h.Terms.Accept()
	s.True(h.Terms.Accepted())

	_, err = s.ctrl.TryDeactivate(s.ctx, h)
	s.Require().NoError(err)
	s.Equal(vmkit.StateDeactivated, h.Terms.Lifecycle().State())
}

func TestViewsSuite(t *testing.T) {
	suite.Run(t, new(ViewsTestSuite))
}
