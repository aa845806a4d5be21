package auvo

import (
	"strings"
	"time"
)

const (
	periodStartSuffix = "T00:00:00"
	periodEndSuffix   = "T23:59:59"
	periodLayout      = "2006-01-02T15:04:05"
)

// Task status values understood by the tasks endpoint.
const (
	TaskStatusScheduled = "scheduled"
	TaskStatusCompleted = "completed"
)

// Tasks filters.

// Period restricts tasks to a date window. Bare dates are widened to the
// whole day: start gets T00:00:00 and end gets T23:59:59. Values that already
// carry a time component are sent unchanged.
func Period(start, end string) QueryOption {
	return func(q *Query) {
		q.Where("startDate", widenDate(start, periodStartSuffix))
		q.Where("endDate", widenDate(end, periodEndSuffix))
	}
}

// PeriodBetween is Period for time values.
func PeriodBetween(start, end time.Time) QueryOption {
	return Period(start.Format(periodLayout), end.Format(periodLayout))
}

// TaskUser restricts tasks to one assignee.
func TaskUser(userID any) QueryOption {
	return where("userId", userID)
}

// TaskCustomer restricts tasks to one customer.
func TaskCustomer(customerID any) QueryOption {
	return where("customerId", customerID)
}

// TaskStatus restricts tasks to a status.
func TaskStatus(status string) QueryOption {
	return where("status", status)
}

// Scheduled is TaskStatus(TaskStatusScheduled).
func Scheduled() QueryOption {
	return TaskStatus(TaskStatusScheduled)
}

// Completed is TaskStatus(TaskStatusCompleted).
func Completed() QueryOption {
	return TaskStatus(TaskStatusCompleted)
}

// TaskTeam restricts tasks to one team.
func TaskTeam(teamID any) QueryOption {
	return where("teamId", teamID)
}

// TaskType restricts tasks to one task type.
func TaskType(taskType any) QueryOption {
	return where("type", taskType)
}

// Users filters.

// UserType restricts users to one user type.
func UserType(userType any) QueryOption {
	return where("userType", userType)
}

// AvailableForTasks keeps only users that can receive tasks.
func AvailableForTasks() QueryOption {
	return where("unavailableForTasks", false)
}

// UserEmail matches users by email.
func UserEmail(email string) QueryOption {
	return where("email", email)
}

// UserLogin matches users by login.
func UserLogin(login string) QueryOption {
	return where("login", login)
}

// Customers filters.

// SegmentID restricts customers to one segment.
func SegmentID(segmentID any) QueryOption {
	return where("segmentId", segmentID)
}

// GroupID restricts customers to one group.
func GroupID(groupID any) QueryOption {
	return where("groupId", groupID)
}

// ActiveOnly keeps only active customers or teams.
func ActiveOnly() QueryOption {
	return where("active", true)
}

// CustomerEmail matches customers by email.
func CustomerEmail(email string) QueryOption {
	return where("email", email)
}

// Document matches customers by CPF/CNPJ document number.
func Document(document string) QueryOption {
	return where("document", document)
}

// CustomerName matches customers by name.
func CustomerName(name string) QueryOption {
	return where("name", name)
}

// Teams filters.

// ManagerID restricts teams to one manager.
func ManagerID(managerID any) QueryOption {
	return where("managerId", managerID)
}

// TeamName matches teams by name.
func TeamName(name string) QueryOption {
	return where("name", name)
}

func where(key string, value any) QueryOption {
	return func(q *Query) {
		q.Where(key, value)
	}
}

func widenDate(value, suffix string) string {
	if value == "" || strings.Contains(value, "T") {
		return value
	}

	return value + suffix
}
