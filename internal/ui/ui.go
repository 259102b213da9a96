package ui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/pathfinder/internal/formatter"
	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/session"
	"github.com/desertthunder/pathfinder/internal/shared"
	"github.com/desertthunder/pathfinder/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	UploadView ViewState = iota
	LoginView
	RegisterView
	ResultsView
)

type authAction int

const (
	actionLogin authAction = iota
	actionRegister
	actionLogout
)

type noticeLevel int

const (
	levelInfo noticeLevel = iota
	levelOK
	levelWarn
	levelError
)

type notice struct {
	text  string
	level noticeLevel
}

// Session is the part of [session.Store] the TUI drives.
type Session interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, fullname, email, password, confirmPassword string) error
	Logout(ctx context.Context) error
	User() *models.User
	Subscribe() (<-chan session.Event, func())
}

// Uploader is the part of [tasks.UploadController] the TUI drives.
type Uploader interface {
	SelectFile(ctx context.Context, path string, source models.SelectionSource) error
	RemoveFile() error
	Analyze(ctx context.Context) (*models.AnalysisResult, error)
	State() tasks.State
	Candidate() *models.UploadCandidate
}

// ResultReader reads the cached analysis result.
type ResultReader interface {
	Read(ctx context.Context) (*models.AnalysisResult, error)
}

// Deps holds the collaborators of a [Model].
//
// Updates should be the channel passed to [tasks.WithUpdates]. Open defaults to [shared.OpenBrowser].
type Deps struct {
	Session  Session
	Uploader Uploader
	Results  ResultReader
	Updates  <-chan tasks.ProgressUpdate
	Open     func(url string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	session     Session
	uploader    Uploader
	results     ResultReader
	open        func(string) error
	updates     <-chan tasks.ProgressUpdate
	events      <-chan session.Event
	unsubscribe func()

	width    int
	height   int
	path     textinput.Model
	login    form
	register form
	progress progress.Model
	spinner  spinner.Model
	list     list.Model
	help     help.Model
	keys     keyMap

	user      *models.User
	state     tasks.State
	candidate *models.UploadCandidate
	percent   int
	status    string
	result    *models.AnalysisResult
	busy      bool
	notice    notice
}

// NewModel creates a new TUI model and subscribes it to session changes. Call [Model.Close] when done.
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.Open == nil {
		deps.Open = shared.OpenBrowser
	}

	path := textinput.New()
	path.Placeholder = "Path to your CV (.pdf), or drop the file here"
	path.CharLimit = 4096
	path.Width = 60
	path.Focus()

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = "Job Matches"

	register := newForm("Sign Up",
		field{label: "Full name"},
		field{label: "Email"},
		field{label: "Password", secret: true},
		field{label: "Confirm password", secret: true},
	)

	events, unsubscribe := deps.Session.Subscribe()

	return &Model{
		ctx:         ctx,
		view:        UploadView,
		session:     deps.Session,
		uploader:    deps.Uploader,
		results:     deps.Results,
		open:        deps.Open,
		updates:     deps.Updates,
		events:      events,
		unsubscribe: unsubscribe,
		path:        path,
		login:       newForm("Log In", field{label: "Email"}, field{label: "Password", secret: true}),
		register:    register,
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		list:        results,
		help:        help.New(),
		keys:        newKeyMap(),
		user:        deps.Session.User(),
		state:       deps.Uploader.State(),
		candidate:   deps.Uploader.Candidate(),
	}
}

// Close cancels the session subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init starts listening for progress and session events and loads the cached result.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForUpdate(), m.waitForEvent(), m.loadResult())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		m.progress.Width = max(10, min(msg.Width-8, 60))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		switch m.view {
		case UploadView:
			return m.handleUploadKeys(msg)
		case LoginView:
			return m.handleLoginKeys(msg)
		case RegisterView:
			return m.handleRegisterKeys(msg)
		case ResultsView:
			return m.handleResultsKeys(msg)
		}
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		m.applyUpdate(msg.data.(tasks.ProgressUpdate))
		return m, m.waitForUpdate()

	case MsgSessionEvent:
		ev := msg.data.(session.Event)
		m.user = ev.User
		if ev.State == models.Unauthenticated {
			m.setResult(nil)
			if m.view == ResultsView {
				m.view = UploadView
			}
			return m, m.waitForEvent()
		}
		return m, tea.Batch(m.waitForEvent(), m.loadResult())

	case MsgAuthDone:
		done := msg.data.(authDone)
		m.busy = false
		return m, m.finishAuth(done)

	case MsgAnalyzeDone:
		done := msg.data.(analyzeDone)
		m.busy = false
		if done.err != nil {
			m.notice = notice{text: userMessage(done.err), level: levelError}
			return m, nil
		}
		m.candidate = nil
		m.setResult(done.result)
		m.notice = notice{text: tasks.AnalyzeSucceededMessage, level: levelOK}
		return m, nil

	case MsgResultLoaded:
		m.setResult(msg.data.(*models.AnalysisResult))
		return m, nil

	case MsgSelectDone:
		if err, _ := msg.data.(error); err != nil {
			m.notice = notice{text: userMessage(err), level: levelWarn}
		} else {
			m.notice = notice{}
		}
		return m, nil

	case MsgOpened:
		if err, _ := msg.data.(error); err != nil {
			m.notice = notice{text: fmt.Sprintf("Could not open link: %v", err), level: levelError}
		} else {
			m.notice = notice{text: "Opened in your browser", level: levelInfo}
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) applyUpdate(u tasks.ProgressUpdate) {
	m.state = u.State
	m.percent = u.Percent
	m.status = u.Message

	switch data := u.Data.(type) {
	case *models.UploadCandidate:
		m.candidate = data
	case *models.AnalysisResult:
		m.setResult(data)
	}
	if u.State == tasks.NoFile || u.State == tasks.Succeeded {
		m.candidate = nil
	}
}

func (m *Model) finishAuth(done authDone) tea.Cmd {
	if done.err != nil {
		m.notice = notice{text: userMessage(done.err), level: levelError}
		return nil
	}

	switch done.action {
	case actionLogin:
		m.login.reset()
		m.view = UploadView
		text := "Welcome!"
		if u := m.session.User(); u != nil {
			m.user = u
			text = fmt.Sprintf("Welcome, %s!", u.Fullname)
		}
		m.notice = notice{text: text, level: levelOK}
		return m.loadResult()
	case actionRegister:
		email := m.register.values()[1]
		m.register.reset()
		m.login.reset()
		m.login.inputs[0].SetValue(strings.TrimSpace(email))
		m.login.focusAt(1)
		m.view = LoginView
		m.notice = notice{text: "Registration successful. Please log in.", level: levelOK}
	case actionLogout:
		m.user = nil
		m.setResult(nil)
		m.notice = notice{text: "Logged out", level: levelInfo}
	}
	return nil
}

func (m *Model) setResult(result *models.AnalysisResult) {
	m.result = result
	m.list.SetItems(listingItems(result))
}

func (m *Model) handleUploadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Paste && strings.TrimSpace(m.path.Value()) == "" {
		return m, m.selectFile(cleanDroppedPath(string(msg.Runes)), models.SourceDragDrop)
	}

	switch {
	case key.Matches(msg, m.keys.enter):
		p := strings.TrimSpace(m.path.Value())
		if p == "" {
			return m, nil
		}
		m.path.Reset()
		return m, m.selectFile(cleanDroppedPath(p), models.SourcePicker)
	case key.Matches(msg, m.keys.analyze):
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.notice = notice{}
		return m, m.analyze()
	case key.Matches(msg, m.keys.remove):
		if err := m.uploader.RemoveFile(); err != nil {
			m.notice = notice{text: userMessage(err), level: levelWarn}
		} else {
			m.candidate = nil
		}
		return m, nil
	case key.Matches(msg, m.keys.login):
		if m.user != nil {
			m.notice = notice{text: session.LoggedInMessage, level: levelWarn}
			return m, nil
		}
		m.view = LoginView
		m.notice = notice{}
		return m, nil
	case key.Matches(msg, m.keys.register):
		m.view = RegisterView
		m.notice = notice{}
		return m, nil
	case key.Matches(msg, m.keys.logout):
		if m.user == nil || m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.authCmd(actionLogout, func() error { return m.session.Logout(m.ctx) })
	case key.Matches(msg, m.keys.results):
		if m.result.TotalListings() == 0 {
			m.notice = notice{text: "No job matches yet. Analyze your CV first.", level: levelInfo}
			return m, nil
		}
		m.view = ResultsView
		return m, nil
	}

	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)
	return m, cmd
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = UploadView
		m.notice = notice{}
		return m, nil
	case key.Matches(msg, m.keys.next):
		m.login.next()
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.login.prev()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.busy {
			return m, nil
		}
		v := m.login.values()
		m.busy = true
		m.notice = notice{}
		return m, m.authCmd(actionLogin, func() error { return m.session.Login(m.ctx, v[0], v[1]) })
	}
	return m, m.login.update(msg)
}

func (m *Model) handleRegisterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = UploadView
		m.notice = notice{}
		return m, nil
	case key.Matches(msg, m.keys.next):
		m.register.next()
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.register.prev()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.busy {
			return m, nil
		}
		v := m.register.values()
		m.busy = true
		m.notice = notice{}
		return m, m.authCmd(actionRegister, func() error { return m.session.Register(m.ctx, v[0], v[1], v[2], v[3]) })
	}
	return m, m.register.update(msg)
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.back):
		m.view = UploadView
		return m, nil
	case key.Matches(msg, m.keys.open):
		item, ok := m.list.SelectedItem().(listingItem)
		if !ok {
			return m, nil
		}
		link := item.listing.Link
		return m, func() tea.Msg { return openedMsg(m.open(link)) }
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) selectFile(path string, source models.SelectionSource) tea.Cmd {
	return func() tea.Msg {
		return selectDoneMsg(m.uploader.SelectFile(m.ctx, path, source))
	}
}

func (m *Model) analyze() tea.Cmd {
	return func() tea.Msg {
		result, err := m.uploader.Analyze(m.ctx)
		return analyzeDoneMsg(result, err)
	}
}

func (m *Model) authCmd(action authAction, fn func() error) tea.Cmd {
	return func() tea.Msg { return authDoneMsg(action, fn()) }
}

func (m *Model) loadResult() tea.Cmd {
	if m.results == nil {
		return nil
	}
	return func() tea.Msg {
		result, err := m.results.Read(m.ctx)
		if err != nil {
			return resultLoadedMsg(nil)
		}
		return resultLoadedMsg(result)
	}
}

func (m *Model) waitForUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-m.updates
		if !ok {
			return channelClosedMsg()
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return channelClosedMsg()
		}
		return sessionEventMsg(ev)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case UploadView:
		body = m.renderUpload()
	case LoginView:
		body = m.login.view() + m.renderFooter(m.keys.enter, m.keys.next, m.keys.back)
	case RegisterView:
		body = m.register.view() + m.renderFooter(m.keys.enter, m.keys.next, m.keys.back)
	case ResultsView:
		body = m.list.View() + "\n" + m.renderFooter(m.keys.open, m.keys.back, m.keys.quit)
	}
	return m.renderHeader() + "\n\n" + body
}

func (m *Model) renderHeader() string {
	account := styles.help.Render("Log In · Sign Up")
	if m.user != nil {
		account = fmt.Sprintf("Logged in as %s", m.user.Fullname)
		if m.user.Email != "" {
			account += styles.help.Render(" <" + m.user.Email + ">")
		}
	}
	return styles.header.Render("PathFinder") + "  " + account
}

func (m *Model) renderUpload() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Upload your CV"))
	b.WriteString("\n")
	b.WriteString(m.path.View())
	b.WriteString("\n\n")

	if c := m.candidate; c != nil {
		info := fmt.Sprintf("%s  %s", c.Name, tasks.HumanSize(c.Size))
		if c.Pages > 0 {
			info += fmt.Sprintf("  %d pages", c.Pages)
		}
		if c.Source == models.SourceDragDrop {
			info += "  (dropped)"
		}
		b.WriteString(styles.panel.Render(info + "\n" + m.progress.ViewAs(float64(m.percent)/100)))
		b.WriteString("\n")
	}

	if m.busy || m.state == tasks.Submitting {
		b.WriteString(m.spinner.View() + " Working...\n")
	} else if m.status != "" {
		b.WriteString(styles.help.Render(m.status) + "\n")
	}

	if m.result != nil && len(m.result.Jobs) > 0 {
		b.WriteString("\n" + styles.title.Render("Top matches") + "\n")
		for i, g := range m.result.Jobs {
			if i == 3 {
				break
			}
			b.WriteString(fmt.Sprintf("  %d. %s  %s  (%d listings)\n", i+1, g.Category, formatter.FormatPercent(g.MatchPercent), len(g.Listings)))
		}
	}

	keys := []key.Binding{m.keys.enter}
	if m.state == tasks.Ready {
		keys = append(keys, m.keys.analyze, m.keys.remove)
	}
	if m.result.TotalListings() > 0 {
		keys = append(keys, m.keys.results)
	}
	if m.user == nil {
		keys = append(keys, m.keys.login, m.keys.register)
	} else {
		keys = append(keys, m.keys.logout)
	}
	keys = append(keys, m.keys.quit)

	b.WriteString("\n")
	b.WriteString(m.renderFooter(keys...))
	return b.String()
}

func (m *Model) renderFooter(keys ...key.Binding) string {
	var b strings.Builder
	if m.notice.text != "" {
		b.WriteString(styles.alert(m.notice) + "\n\n")
	}
	b.WriteString(m.help.ShortHelpView(keys))
	return b.String()
}

// userMessage maps workflow errors to the text shown in the alert line.
func userMessage(err error) string {
	var authErr *session.AuthError
	var noticeErr *tasks.NoticeError
	switch {
	case errors.As(err, &noticeErr):
		return noticeErr.Message
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.Is(err, shared.ErrPasswordMismatch):
		return "Passwords do not match."
	case errors.Is(err, shared.ErrInvalidInput):
		return "Please fill in every field."
	case errors.Is(err, shared.ErrTooManyAttempts):
		return "Too many attempts. Please wait a moment and try again."
	case errors.Is(err, shared.ErrInFlight):
		return "Please wait for the current request to finish."
	case errors.Is(err, shared.ErrNotReady):
		return "Select a PDF and wait for it to finish loading."
	case errors.Is(err, shared.ErrUnsupportedFileType):
		return tasks.PDFOnlyMessage
	case errors.Is(err, shared.ErrFileTooLarge):
		return "That file is larger than the upload limit."
	default:
		return err.Error()
	}
}

// cleanDroppedPath undoes the quoting terminals apply to dropped file paths.
func cleanDroppedPath(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	if rest, ok := strings.CutPrefix(s, "file://"); ok {
		if unescaped, err := url.PathUnescape(rest); err == nil {
			rest = unescaped
		}
		s = rest
	}
	return strings.ReplaceAll(s, `\ `, " ")
}
