package permissions

// Definition describes one registered permission code.
type Definition struct {
	Code        string `json:"code"`
	Group       string `json:"group"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

const (
	GroupPositions = "Positions"
	GroupStaff     = "Staff"
	GroupShifts    = "Shifts"
	GroupExpenses  = "Expenses"
	GroupReports   = "Reports"
)

const (
	PositionsView             = "POSITIONS_VIEW"
	PositionsManage           = "POSITIONS_MANAGE"
	PositionPermissionsManage = "POSITION_PERMISSIONS_MANAGE"
	StaffView                 = "STAFF_VIEW"
	StaffManage               = "STAFF_MANAGE"
	ShiftsView                = "SHIFTS_VIEW"
	ShiftsManage              = "SHIFTS_MANAGE"
	ExpenseAdd                = "EXPENSE_ADD"
	ExpenseView               = "EXPENSE_VIEW"
	ExpenseCategoriesManage   = "EXPENSE_CATEGORIES_MANAGE"
	ReportsViewDaily          = "REPORTS_VIEW_DAILY"
	ReportsViewMonthly        = "REPORTS_VIEW_MONTHLY"
	ReportsViewPNL            = "REPORTS_VIEW_PNL"
)

// Registry is the code-side source of truth. Sync mirrors it into the
// permissions table.
var Registry = []Definition{
	{Code: PositionsView, Group: GroupPositions, Title: "View positions", Description: "See venue positions and their pay settings."},
	{Code: PositionsManage, Group: GroupPositions, Title: "Manage positions", Description: "Create, edit and remove positions."},
	{Code: PositionPermissionsManage, Group: GroupPositions, Title: "Manage position permissions", Description: "Toggle capability flags on positions."},
	{Code: StaffView, Group: GroupStaff, Title: "View staff", Description: "See the member roster."},
	{Code: StaffManage, Group: GroupStaff, Title: "Manage staff", Description: "Invite, remove and change roles of members."},
	{Code: ShiftsView, Group: GroupShifts, Title: "View shifts", Description: "See the schedule."},
	{Code: ShiftsManage, Group: GroupShifts, Title: "Manage shifts", Description: "Create shifts and assign members."},
	{Code: ExpenseAdd, Group: GroupExpenses, Title: "Add expenses", Description: "Record venue expenses."},
	{Code: ExpenseView, Group: GroupExpenses, Title: "View expenses", Description: "See recorded expenses."},
	{Code: ExpenseCategoriesManage, Group: GroupExpenses, Title: "Manage expense categories", Description: "Edit the expense category list."},
	{Code: ReportsViewDaily, Group: GroupReports, Title: "View daily reports", Description: "See daily cash reports."},
	{Code: ReportsViewMonthly, Group: GroupReports, Title: "View monthly reports", Description: "See monthly aggregates."},
	{Code: ReportsViewPNL, Group: GroupReports, Title: "View P&L", Description: "See profit and loss."},
}

// Lookup returns the registered definition for code.
func Lookup(code string) (Definition, bool) {
	for _, def := range Registry {
		if def.Code == code {
			return def, true
		}
	}
	return Definition{}, false
}
