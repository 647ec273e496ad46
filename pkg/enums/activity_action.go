package enums

// ActivityAction names the actions recorded in the activity log.
type ActivityAction string

const (
	ActivityActionWishlistCreated ActivityAction = "wishlist_created"
	ActivityActionWishlistUpdated ActivityAction = "wishlist_updated"
	ActivityActionWishlistDeleted ActivityAction = "wishlist_deleted"
	ActivityActionItemAdded       ActivityAction = "item_added"
	ActivityActionItemUpdated     ActivityAction = "item_updated"
	ActivityActionItemDeleted     ActivityAction = "item_deleted"
	ActivityActionItemReserved    ActivityAction = "item_reserved"
	ActivityActionItemPurchased   ActivityAction = "item_purchased"
	ActivityActionItemUnreserved  ActivityAction = "item_unreserved"
	ActivityActionShareCreated    ActivityAction = "share_created"
	ActivityActionShareDeleted    ActivityAction = "share_deleted"
	ActivityActionGroupCreated    ActivityAction = "group_created"
	ActivityActionGroupUpdated    ActivityAction = "group_updated"
	ActivityActionGroupDeleted    ActivityAction = "group_deleted"
	ActivityActionMemberAdded     ActivityAction = "member_added"
	ActivityActionMemberRemoved   ActivityAction = "member_removed"
	ActivityActionUserLogin       ActivityAction = "user_login"
	ActivityActionLoginFailed     ActivityAction = "login_failed"
	ActivityActionUserRegistered  ActivityAction = "user_registered"
)

// String implements fmt.Stringer.
func (a ActivityAction) String() string {
	return string(a)
}
