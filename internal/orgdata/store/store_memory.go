package store

import (
	"context"
	"sort"
	"sync"

	"crewops/internal/orgdata"
	"crewops/pkg/domain"
	"crewops/pkg/platform/sentinel"
)

// memoryTask pairs a task with its window so the memory gateway can apply
// the same overlap filtering the SQL query does.
type memoryTask struct {
	Task   orgdata.Task
	Window orgdata.DateRange
}

// MemoryGateway is an in-memory org-data gateway for tests and local
// development.
type MemoryGateway struct {
	mu        sync.RWMutex
	incidents map[domain.EmployeeID][]orgdata.Incident
	tasks     map[domain.EmployeeID][]memoryTask
	profiles  map[domain.EmployeeID]orgdata.SkillProfile
	teams     map[domain.EmployeeID]domain.TeamID
	projects  map[domain.ProjectID][]orgdata.RequiredSkill
	members   map[domain.TeamID][]orgdata.TeamMember
}

func NewMemory() *MemoryGateway {
	return &MemoryGateway{
		incidents: make(map[domain.EmployeeID][]orgdata.Incident),
		tasks:     make(map[domain.EmployeeID][]memoryTask),
		profiles:  make(map[domain.EmployeeID]orgdata.SkillProfile),
		teams:     make(map[domain.EmployeeID]domain.TeamID),
		projects:  make(map[domain.ProjectID][]orgdata.RequiredSkill),
		members:   make(map[domain.TeamID][]orgdata.TeamMember),
	}
}

// SetEmployee registers an employee profile and optional team membership.
func (g *MemoryGateway) SetEmployee(profile orgdata.SkillProfile, teamID domain.TeamID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.profiles[profile.EmployeeID] = profile
	if !teamID.IsNil() {
		g.teams[profile.EmployeeID] = teamID
	}
}

// AddIncident records an open incident against an employee.
func (g *MemoryGateway) AddIncident(employeeID domain.EmployeeID, incident orgdata.Incident) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.incidents[employeeID] = append(g.incidents[employeeID], incident)
}

// AddTask records a task with its date window against an employee.
func (g *MemoryGateway) AddTask(employeeID domain.EmployeeID, task orgdata.Task, window orgdata.DateRange) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks[employeeID] = append(g.tasks[employeeID], memoryTask{Task: task, Window: window})
}

// SetProjectSkills registers a project's staffing demand.
func (g *MemoryGateway) SetProjectSkills(projectID domain.ProjectID, skills []orgdata.RequiredSkill) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.projects[projectID] = skills
}

// SetTeam registers a team capacity snapshot.
func (g *MemoryGateway) SetTeam(teamID domain.TeamID, members []orgdata.TeamMember) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[teamID] = members
	for _, member := range members {
		g.teams[member.EmployeeID] = teamID
	}
}

func (g *MemoryGateway) EmployeeIncidents(_ context.Context, employeeID domain.EmployeeID) ([]orgdata.Incident, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]orgdata.Incident{}, g.incidents[employeeID]...), nil
}

func (g *MemoryGateway) EmployeeTasks(_ context.Context, employeeID domain.EmployeeID, window orgdata.DateRange) ([]orgdata.Task, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var tasks []orgdata.Task
	for _, entry := range g.tasks[employeeID] {
		if entry.Task.Status != orgdata.TaskStatusCompleted && entry.Window.Overlaps(window) {
			tasks = append(tasks, entry.Task)
		}
	}
	return tasks, nil
}

func (g *MemoryGateway) EmployeeProfile(_ context.Context, employeeID domain.EmployeeID) (orgdata.SkillProfile, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	profile, ok := g.profiles[employeeID]
	if !ok {
		return orgdata.SkillProfile{}, sentinel.ErrNotFound
	}
	return profile, nil
}

func (g *MemoryGateway) ProjectRequiredSkills(_ context.Context, projectID domain.ProjectID) ([]orgdata.RequiredSkill, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]orgdata.RequiredSkill{}, g.projects[projectID]...), nil
}

func (g *MemoryGateway) TeamSnapshot(_ context.Context, teamID domain.TeamID) ([]orgdata.TeamMember, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]orgdata.TeamMember{}, g.members[teamID]...), nil
}

func (g *MemoryGateway) ActiveEmployees(_ context.Context) ([]domain.EmployeeID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]domain.EmployeeID, 0, len(g.profiles))
	for employeeID := range g.profiles {
		ids = append(ids, employeeID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (g *MemoryGateway) EmployeesOutsideTeam(_ context.Context, teamID domain.TeamID, skill string, maxWorkload float64) ([]domain.EmployeeID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var ids []domain.EmployeeID
	for employeeID, profile := range g.profiles {
		if g.teams[employeeID] == teamID {
			continue
		}
		if profile.WorkloadPercent >= maxWorkload {
			continue
		}
		for _, s := range profile.Skills {
			if s == skill {
				ids = append(ids, employeeID)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}
