package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/notify"
	"github.com/monocle-dev/taskboard/internal/storage"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	Assignee    string // full name
}

type CreateProjectInput struct {
	Name          string
	Description   string
	DueDate       *time.Time
	Status        string
	AssignMembers string // comma separated full names
	Tasks         []ProjectTaskInput
	Attachments   []FileUpload
}

type CreateProjectResult struct {
	ProjectID uint
	// Unresolved holds member and assignee names that matched no user.
	Unresolved []string
}

// UpdateProjectInput applies only its non-nil fields. A non-nil MemberIDs
// replaces the whole non-manager membership, so an empty slice removes
// every member.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *string
	DueDate     *time.Time
	MemberIDs   *[]uint
}

type ProjectDetails struct {
	ID          uint                `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Status      types.ProjectStatus `json:"status"`
	DueDate     *time.Time          `json:"dueDate"`
	ManagerID   uint                `json:"managerId"`
	CreatedAt   time.Time           `json:"createdAt"`
	Members     []MemberView        `json:"members"`
	Tasks       []TaskView          `json:"tasks"`
	Attachments []AttachmentView    `json:"attachments"`
}

type ProjectSummary struct {
	ID          uint                `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Status      types.ProjectStatus `json:"status"`
	DueDate     *time.Time          `json:"dueDate"`
	ManagerID   uint                `json:"managerId"`
	Role        types.MemberRole    `json:"role"`
	MemberCount int64               `json:"memberCount"`
	TaskCount   int64               `json:"taskCount"`
	CreatedAt   time.Time           `json:"createdAt"`
}

type ProjectService struct {
	db         *gorm.DB
	notifier   *notify.Notifier
	dispatcher notify.Dispatcher
	files      *fileKeeper
	log        *logrus.Entry
}

func NewProjectService(db *gorm.DB, store storage.FileStore, notifier *notify.Notifier, dispatcher notify.Dispatcher) *ProjectService {
	return &ProjectService{
		db:         db,
		notifier:   notifier,
		dispatcher: dispatcher,
		files:      newFileKeeper(db, store),
		log:        logutils.WithComponent("projects"),
	}
}

// Create inserts the project, its manager and members, its tasks with their
// assignments, its attachments and the notifications they cause in one
// transaction. Files written before a rollback are removed again.
func (s *ProjectService) Create(ctx context.Context, managerID uint, in CreateProjectInput) (*CreateProjectResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("Project name is required")
	}

	result := &CreateProjectResult{}
	var written []string
	var notes []*models.Notification

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project := models.Project{
			Name:        name,
			Description: in.Description,
			ManagerID:   managerID,
			Status:      types.ParseProjectStatus(in.Status),
			DueDate:     in.DueDate,
		}

		if err := tx.Omit(clause.Associations).Create(&project).Error; err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		result.ProjectID = project.ID

		if err := addMember(tx, project.ID, managerID, types.RoleManager); err != nil {
			return err
		}

		for _, memberName := range splitNames(in.AssignMembers) {
			userID, err := findUserByName(tx, memberName)
			if err != nil {
				return err
			}

			if userID == 0 {
				result.Unresolved = append(result.Unresolved, memberName)
				continue
			}

			if userID == managerID {
				continue
			}

			if err := addMember(tx, project.ID, userID, types.RoleMember); err != nil {
				return err
			}
		}

		for i, t := range in.Tasks {
			title := strings.TrimSpace(t.Title)
			if title == "" {
				return invalid("Task %d: title is required", i+1)
			}

			task := models.Task{
				ProjectID:   &project.ID,
				CreatorID:   managerID,
				Title:       title,
				Description: t.Description,
				Status:      types.ParseTaskStatus(t.Status),
				Priority:    types.ParseTaskPriority(t.Priority),
				DueDate:     t.DueDate,
			}

			if err := tx.Omit(clause.Associations).Create(&task).Error; err != nil {
				return fmt.Errorf("failed to create task %q: %w", title, err)
			}

			assignee := strings.TrimSpace(t.Assignee)
			if assignee == "" {
				continue
			}

			userID, err := findUserByName(tx, assignee)
			if err != nil {
				return err
			}

			if userID == 0 {
				result.Unresolved = append(result.Unresolved, assignee)
				continue
			}

			// A manager assigning themselves still gets the row, only the
			// notification is skipped.
			if err := assign(tx, task.ID, userID); err != nil {
				return err
			}

			note, err := s.notifier.Insert(ctx, tx, userID, notify.Event{
				Type:      types.NotificationTaskAssigned,
				ActorID:   &managerID,
				Message:   fmt.Sprintf("You have been assigned to task %q in project %q", title, name),
				TaskID:    &task.ID,
				ProjectID: &project.ID,
			})
			if err != nil {
				return err
			}
			notes = append(notes, note)
		}

		for _, up := range in.Attachments {
			att, err := s.files.write(ctx, types.ScopeProject, project.ID, managerID, up)
			if err != nil {
				return err
			}
			written = append(written, att.Path)

			if err := tx.Omit(clause.Associations).Create(&att).Error; err != nil {
				return fmt.Errorf("failed to save attachment %q: %w", att.OriginalName, err)
			}
		}

		note, err := s.notifier.Insert(ctx, tx, managerID, notify.Event{
			Type:      types.NotificationProjectCreated,
			Message:   fmt.Sprintf("Project %q has been created", name),
			ProjectID: &project.ID,
		})
		if err != nil {
			return err
		}
		notes = append(notes, note)

		return nil
	})

	if err != nil {
		s.files.discard(ctx, written, "project creation rolled back")
		return nil, err
	}

	s.notifier.Publish(notes...)

	s.log.WithFields(logutils.Fields{
		"project_id": result.ProjectID,
		"manager_id": managerID,
		"tasks":      len(in.Tasks),
		"files":      len(written),
	}).Info("Project created")

	return result, nil
}

// Update applies the present fields of in. Only the manager may update a
// project. Members other than actorID are told about the change once it has
// committed.
func (s *ProjectService) Update(ctx context.Context, actorID, projectID uint, in UpdateProjectInput) error {
	updates := map[string]any{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return invalid("Project name cannot be empty")
		}
		updates["name"] = name
	}

	if in.Description != nil {
		updates["description"] = *in.Description
	}

	if in.Status != nil {
		updates["status"] = types.ParseProjectStatus(*in.Status)
	}

	if in.DueDate != nil {
		updates["due_date"] = *in.DueDate
	}

	if len(updates) == 0 && in.MemberIDs == nil {
		return invalid("No valid fields to update")
	}

	var project models.Project

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&project, projectID).Error; err != nil {
			return lookupErr(err, "Project")
		}

		if project.ManagerID != actorID {
			return forbidden("Only the project manager can update this project")
		}

		if len(updates) > 0 {
			if err := tx.Model(&project).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update project: %w", err)
			}
		}

		if in.MemberIDs != nil {
			if err := replaceMembers(tx, project, *in.MemberIDs); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return err
	}

	name := project.Name
	if n, ok := updates["name"].(string); ok {
		name = n
	}

	members, err := projectMemberIDs(s.db.WithContext(ctx), projectID)
	if err != nil {
		s.log.WithFields(logutils.Fields{"project_id": projectID, "error": err}).Error("Failed to load members for update notification")
		return nil
	}

	s.dispatcher.Dispatch(ctx, members, notify.Event{
		Type:      types.NotificationProjectUpdate,
		ActorID:   &actorID,
		Message:   fmt.Sprintf("Project %q has been updated", name),
		ProjectID: &projectID,
	})

	return nil
}

// replaceMembers drops every member row and inserts ids in their place. The
// manager row is kept and is not downgraded if its id appears in ids.
func replaceMembers(tx *gorm.DB, project models.Project, ids []uint) error {
	wanted := make([]uint, 0, len(ids))
	for _, id := range notify.Unique(ids) {
		if id != project.ManagerID {
			wanted = append(wanted, id)
		}
	}

	if len(wanted) > 0 {
		var found []uint

		if err := tx.Model(&models.User{}).Where("id IN ?", wanted).Pluck("id", &found).Error; err != nil {
			return fmt.Errorf("failed to look up members: %w", err)
		}

		for _, id := range wanted {
			if !slices.Contains(found, id) {
				return invalid("User %d does not exist", id)
			}
		}
	}

	err := tx.Where("project_id = ? AND role = ?", project.ID, types.RoleMember).Delete(&models.ProjectMember{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear project members: %w", err)
	}

	for _, id := range wanted {
		if err := addMember(tx, project.ID, id, types.RoleMember); err != nil {
			return err
		}
	}

	manager := models.ProjectMember{ProjectID: project.ID, UserID: project.ManagerID, Role: types.RoleManager}

	err = tx.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&manager).Error
	if err != nil {
		return fmt.Errorf("failed to keep project manager: %w", err)
	}

	return nil
}

// Details returns the project with its members, tasks and attachments.
// Only members may read it.
func (s *ProjectService) Details(ctx context.Context, userID, projectID uint) (*ProjectDetails, error) {
	tx := s.db.WithContext(ctx)

	var project models.Project

	if err := tx.First(&project, projectID).Error; err != nil {
		return nil, lookupErr(err, "Project")
	}

	if err := requireMember(tx, projectID, userID); err != nil {
		return nil, err
	}

	var members []models.ProjectMember

	if err := tx.Preload("User").Where("project_id = ?", projectID).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to load project members: %w", err)
	}

	var tasks []models.Task

	if err := tx.Preload("Assignments.User").Where("project_id = ?", projectID).Order("id").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to load project tasks: %w", err)
	}

	var attachments []models.Attachment

	if err := tx.Where("project_id = ?", projectID).Order("id").Find(&attachments).Error; err != nil {
		return nil, fmt.Errorf("failed to load project attachments: %w", err)
	}

	details := &ProjectDetails{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		DueDate:     project.DueDate,
		ManagerID:   project.ManagerID,
		CreatedAt:   project.CreatedAt,
		Members:     make([]MemberView, 0, len(members)),
		Tasks:       make([]TaskView, 0, len(tasks)),
		Attachments: newAttachmentViews(attachments),
	}

	for _, m := range members {
		details.Members = append(details.Members, MemberView{
			ID:    m.UserID,
			Name:  m.User.Name,
			Email: m.User.Email,
			Role:  m.Role,
		})
	}

	// manager first, then by name
	slices.SortStableFunc(details.Members, func(a, b MemberView) int {
		if a.Role != b.Role {
			if a.Role == types.RoleManager {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})

	for _, t := range tasks {
		details.Tasks = append(details.Tasks, newTaskView(t))
	}

	return details, nil
}

// List returns every project userID belongs to, newest first.
func (s *ProjectService) List(ctx context.Context, userID uint) ([]ProjectSummary, error) {
	tx := s.db.WithContext(ctx)

	var memberships []models.ProjectMember

	if err := tx.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	summaries := make([]ProjectSummary, 0, len(memberships))
	if len(memberships) == 0 {
		return summaries, nil
	}

	roles := make(map[uint]types.MemberRole, len(memberships))
	ids := make([]uint, 0, len(memberships))
	for _, m := range memberships {
		roles[m.ProjectID] = m.Role
		ids = append(ids, m.ProjectID)
	}

	var projects []models.Project

	if err := tx.Where("id IN ?", ids).Order("created_at DESC, id DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}

	memberCounts, err := countByProject(tx, &models.ProjectMember{}, ids)
	if err != nil {
		return nil, err
	}

	taskCounts, err := countByProject(tx, &models.Task{}, ids)
	if err != nil {
		return nil, err
	}

	for _, p := range projects {
		summaries = append(summaries, ProjectSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Status:      p.Status,
			DueDate:     p.DueDate,
			ManagerID:   p.ManagerID,
			Role:        roles[p.ID],
			MemberCount: memberCounts[p.ID],
			TaskCount:   taskCounts[p.ID],
			CreatedAt:   p.CreatedAt,
		})
	}

	return summaries, nil
}

// Delete removes the project and everything hanging off it. Stored files are
// removed after the rows are gone.
func (s *ProjectService) Delete(ctx context.Context, actorID, projectID uint) error {
	var paths []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project

		if err := tx.First(&project, projectID).Error; err != nil {
			return lookupErr(err, "Project")
		}

		if project.ManagerID != actorID {
			return forbidden("Only the project manager can delete this project")
		}

		var taskIDs []uint

		if err := tx.Model(&models.Task{}).Where("project_id = ?", projectID).Pluck("id", &taskIDs).Error; err != nil {
			return fmt.Errorf("failed to load project tasks: %w", err)
		}

		attachments := tx.Model(&models.Attachment{}).Where("project_id = ?", projectID)
		if len(taskIDs) > 0 {
			attachments = attachments.Or("task_id IN ?", taskIDs)
		}

		if err := attachments.Pluck("path", &paths).Error; err != nil {
			return fmt.Errorf("failed to load project attachments: %w", err)
		}

		if len(taskIDs) > 0 {
			if err := deleteTaskRows(tx, taskIDs); err != nil {
				return err
			}
		}

		steps := []struct {
			what  string
			model any
			query string
		}{
			{"attachments", &models.Attachment{}, "project_id = ?"},
			{"members", &models.ProjectMember{}, "project_id = ?"},
			{"project", &models.Project{}, "id = ?"},
		}

		for _, step := range steps {
			if err := tx.Where(step.query, projectID).Delete(step.model).Error; err != nil {
				return fmt.Errorf("failed to delete project %s: %w", step.what, err)
			}
		}

		return nil
	})

	if err != nil {
		return err
	}

	s.files.discard(ctx, paths, "project deleted")

	s.log.WithFields(logutils.Fields{"project_id": projectID, "files": len(paths)}).Info("Project deleted")
	return nil
}

// UploadAttachment stores a project level file. The file is written before
// the row; if the row cannot be saved the file is removed again.
func (s *ProjectService) UploadAttachment(ctx context.Context, actorID, projectID uint, up FileUpload) (*AttachmentView, error) {
	tx := s.db.WithContext(ctx)

	var project models.Project

	if err := tx.First(&project, projectID).Error; err != nil {
		return nil, lookupErr(err, "Project")
	}

	if err := requireMember(tx, projectID, actorID); err != nil {
		return nil, err
	}

	att, err := s.files.write(ctx, types.ScopeProject, projectID, actorID, up)
	if err != nil {
		return nil, err
	}

	if err := tx.Omit(clause.Associations).Create(&att).Error; err != nil {
		s.files.discard(ctx, []string{att.Path}, "attachment row not saved")
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}

	members, err := projectMemberIDs(tx, projectID)
	if err != nil {
		s.log.WithFields(logutils.Fields{"project_id": projectID, "error": err}).Error("Failed to load members for attachment notification")
	} else {
		s.dispatcher.Dispatch(ctx, members, notify.Event{
			Type:      types.NotificationNewAttachment,
			ActorID:   &actorID,
			Message:   fmt.Sprintf("New file %q added to project %q", att.OriginalName, project.Name),
			ProjectID: &projectID,
		})
	}

	view := newAttachmentView(att)
	return &view, nil
}

func (s *ProjectService) ListAttachments(ctx context.Context, userID, projectID uint) ([]AttachmentView, error) {
	tx := s.db.WithContext(ctx)

	var project models.Project

	if err := tx.First(&project, projectID).Error; err != nil {
		return nil, lookupErr(err, "Project")
	}

	if err := requireMember(tx, projectID, userID); err != nil {
		return nil, err
	}

	var rows []models.Attachment

	if err := tx.Where("project_id = ?", projectID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load attachments: %w", err)
	}

	return newAttachmentViews(rows), nil
}

// addMember inserts the membership unless the pair already exists.
func addMember(tx *gorm.DB, projectID, userID uint, role types.MemberRole) error {
	member := models.ProjectMember{ProjectID: projectID, UserID: userID, Role: role}

	if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error; err != nil {
		return fmt.Errorf("failed to add member %d: %w", userID, err)
	}
	return nil
}

// assign inserts the assignment unless it already exists.
func assign(tx *gorm.DB, taskID, userID uint) error {
	row := models.TaskAssignment{TaskID: taskID, UserID: userID}

	if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to assign task %d: %w", taskID, err)
	}
	return nil
}

// findUserByName resolves an exact full name to the lowest matching user id.
// It returns 0 when nobody has that name.
func findUserByName(tx *gorm.DB, name string) (uint, error) {
	var users []models.User

	if err := tx.Select("id").Where("name = ?", name).Order("id").Limit(1).Find(&users).Error; err != nil {
		return 0, fmt.Errorf("failed to look up user %q: %w", name, err)
	}

	if len(users) == 0 {
		return 0, nil
	}
	return users[0].ID, nil
}

// splitNames splits a comma separated list, dropping blanks and repeats.
func splitNames(list string) []string {
	var names []string

	for _, part := range strings.Split(list, ",") {
		name := strings.TrimSpace(part)
		if name != "" && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	return names
}

func countByProject(tx *gorm.DB, model any, ids []uint) (map[uint]int64, error) {
	var rows []struct {
		ProjectID uint
		N         int64
	}

	err := tx.Model(model).Select("project_id, count(*) AS n").Where("project_id IN ?", ids).Group("project_id").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.ProjectID] = row.N
	}
	return counts, nil
}

// deleteTaskRows removes the tasks and the rows that belong to them.
func deleteTaskRows(tx *gorm.DB, taskIDs []uint) error {
	steps := []struct {
		what  string
		model any
		query string
	}{
		{"assignments", &models.TaskAssignment{}, "task_id IN ?"},
		{"comments", &models.Comment{}, "task_id IN ?"},
		{"attachments", &models.Attachment{}, "task_id IN ?"},
		{"tasks", &models.Task{}, "id IN ?"},
	}

	for _, step := range steps {
		if err := tx.Where(step.query, taskIDs).Delete(step.model).Error; err != nil {
			return fmt.Errorf("failed to delete task %s: %w", step.what, err)
		}
	}

	return nil
}
