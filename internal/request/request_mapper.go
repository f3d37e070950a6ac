package request

import "time"

func mapToResponse(l LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:               l.ID.String(),
		EmployeeID:       l.EmployeeID.String(),
		LeaveType:        l.LeaveType,
		StartDate:        l.StartDate.Format("2006-01-02"),
		EndDate:          l.EndDate.Format("2006-01-02"),
		TotalDays:        l.TotalDays.InexactFloat64(),
		IsHalfDay:        l.IsHalfDay,
		Reason:           l.Reason,
		Status:           string(l.Status),
		ModeAtSubmission: l.ModeAtSubmission,

		HRAssignedAt:       formatTime(l.HRAssignedAt),
		HRViewedAt:         formatTime(l.HRViewedAt),
		CanSetPriority:     l.CanSetPriority,
		PriorityEligibleAt: formatTime(l.PriorityEligibleAt),
		EscalationCount:    l.EscalationCount,
		LastEscalationAt:   formatTime(l.LastEscalationAt),
		ProcessingNotes:    l.ProcessingNotes,

		RequiredLevels:  l.RequiredLevels,
		CurrentLevel:    l.CurrentLevel,
		CurrentApprover: formatUUID(l.CurrentApprover),
		SLADeadline:     formatTime(l.SLADeadline),

		ApprovedBy:      formatUUID(l.ApprovedBy),
		ApprovedAt:      formatTime(l.ApprovedAt),
		RejectionReason: l.RejectionReason,
		CancelledAt:     formatTime(l.CancelledAt),

		CreatedAt: l.CreatedAt.Format(time.RFC3339),
	}

	for level := 1; level <= l.RequiredLevels && level <= 3; level++ {
		resp.Levels = append(resp.Levels, LevelResponse{
			Level:    level,
			Approver: formatUUID(l.LevelApprover(level)),
			Status:   string(l.LevelStatus(level)),
			ActionAt: formatTime(l.levelActionAt(level)),
			Comments: l.levelComments(level),
		})
	}

	return resp
}

func (l *LeaveRequest) levelActionAt(level int) *time.Time {
	switch level {
	case 1:
		return l.Level1ActionAt
	case 2:
		return l.Level2ActionAt
	case 3:
		return l.Level3ActionAt
	}
	return nil
}

func (l *LeaveRequest) levelComments(level int) *string {
	switch level {
	case 1:
		return l.Level1Comments
	case 2:
		return l.Level2Comments
	case 3:
		return l.Level3Comments
	}
	return nil
}

func mapToListResponse(list []LeaveRequest) []LeaveRequestResponse {
	resp := make([]LeaveRequestResponse, len(list))
	for i, l := range list {
		resp[i] = mapToResponse(l)
	}
	return resp
}

func mapBadgeToResponse(b PriorityBadge) PriorityBadgeResponse {
	return PriorityBadgeResponse{
		RequestID:    b.RequestID.String(),
		Level:        string(b.Level),
		Reason:       b.Reason,
		SetAt:        b.SetAt.Format(time.RFC3339),
		HRNotifiedAt: formatTime(b.HRNotifiedAt),
		EmailSentAt:  formatTime(b.EmailSentAt),
	}
}
