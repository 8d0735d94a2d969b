package reconcile

// Alias lists per logical attribute, most specific first. Upstream services
// disagree on casing and nesting, so every read goes through one of these.
var (
	StudentIDAliases   = []string{"studentId", "student_id", "student.id", "student.studentId"}
	StudentNameAliases = []string{"studentName", "student_name", "name", "fullName", "full_name", "student.name", "student.fullName", "student.studentName"}
	FirstNameAliases   = []string{"firstName", "first_name", "student.firstName", "student.first_name"}
	LastNameAliases    = []string{"lastName", "last_name", "student.lastName", "student.last_name"}

	RoomIDAliases     = []string{"roomId", "room_id", "room.id"}
	RoomNumberAliases = []string{"roomNumber", "room_number", "roomNo", "room.roomNumber", "room.number", "room.room_number"}
	HostelIDAliases   = []string{"hostelId", "hostel_id", "hostel.id", "room.hostelId", "room.hostel.id"}
	HostelNameAliases = []string{"hostelName", "hostel_name", "hostel.name", "room.hostelName", "room.hostel.name"}

	PhoneAliases       = []string{"phone", "phoneNumber", "phone_number", "contactNumber", "mobile", "student.phone", "student.phoneNumber"}
	ParentPhoneAliases = []string{"parentPhone", "parent_phone", "guardianPhone", "parentContact", "parentMobile", "student.parentPhone", "student.guardianPhone"}

	AllocationIDAliases     = []string{"allocationId", "allocation_id", "id"}
	AllocationStatusAliases = []string{"status", "allocationStatus", "allocation_status"}

	FeeIDAliases           = []string{"feeId", "fee_id", "id"}
	MonthlyFeeAliases      = []string{"monthlyFee", "monthly_fee", "monthlyRent", "room.monthlyFee", "room.monthlyRent"}
	TotalFeeAliases        = []string{"totalFee", "total_fee", "totalAmount", "total_amount"}
	AmountPaidAliases      = []string{"amountPaid", "amount_paid", "paidAmount", "paid"}
	DueAmountAliases       = []string{"dueAmount", "due_amount", "balance"}
	FeeStatusAliases       = []string{"status", "paymentStatus", "feeStatus"}
	LastPaymentDateAliases = []string{"lastPaymentDate", "last_payment_date", "paymentDate", "paidOn"}

	AttendanceIDAliases     = []string{"attendanceId", "attendance_id", "id"}
	AttendanceDateAliases   = []string{"date", "attendanceDate", "attendance_date"}
	AttendanceStatusAliases = []string{"status", "attendanceStatus", "attendance_status"}
	RemarksAliases          = []string{"remarks", "remark", "notes"}

	EntityIDAliases    = []string{"id", "_id", "uuid"}
	CapacityAliases    = []string{"capacity", "maxOccupancy", "max_occupancy", "beds"}
	SharingTypeAliases = []string{"sharingType", "sharing_type", "roomType", "room_type", "type"}
	OccupiedAliases    = []string{"occupied", "occupiedCount", "occupied_count", "currentOccupancy", "occupancy"}

	TokenAliases = []string{"token", "accessToken", "access_token", "jwt", "data.token", "data.accessToken", "data.access_token"}
)
