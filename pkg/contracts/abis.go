package contracts

// Contract ABIs for the escrow marketplace, the ERC-20 reward token and the
// ERC-721 work credential. Trimmed to the surfaces this service consumes.

const marketplaceABI = `[
	{"type":"function","name":"nextJobId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getJobBasicInfo","stateMutability":"view","inputs":[{"name":"jobId","type":"uint256"}],"outputs":[{"name":"requester","type":"address"},{"name":"worker","type":"address"},{"name":"reward","type":"uint256"},{"name":"deadline","type":"uint256"},{"name":"title","type":"string"},{"name":"status","type":"uint256"}]},
	{"type":"function","name":"getJob","stateMutability":"view","inputs":[{"name":"jobId","type":"uint256"}],"outputs":[{"name":"jobId","type":"uint256"},{"name":"requester","type":"address"},{"name":"worker","type":"address"},{"name":"reward","type":"uint256"},{"name":"deadline","type":"uint256"},{"name":"title","type":"string"},{"name":"description","type":"string"},{"name":"deliveryUrl","type":"string"},{"name":"status","type":"uint256"}]},
	{"type":"function","name":"createJob","stateMutability":"nonpayable","inputs":[{"name":"reward","type":"uint256"},{"name":"deadline","type":"uint256"},{"name":"title","type":"string"},{"name":"description","type":"string"}],"outputs":[]},
	{"type":"function","name":"takeJob","stateMutability":"nonpayable","inputs":[{"name":"jobId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"submitWork","stateMutability":"nonpayable","inputs":[{"name":"jobId","type":"uint256"},{"name":"proofLink","type":"string"}],"outputs":[]},
	{"type":"function","name":"approveWork","stateMutability":"nonpayable","inputs":[{"name":"jobId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"cancelJob","stateMutability":"nonpayable","inputs":[{"name":"jobId","type":"uint256"}],"outputs":[]},
	{"type":"event","name":"JobCreated","anonymous":false,"inputs":[{"name":"jobId","type":"uint256","indexed":true},{"name":"requester","type":"address","indexed":true},{"name":"reward","type":"uint256","indexed":false}]}
]`

const erc20ABI = `[
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const erc721ABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"balance","type":"uint256"}]},
	{"type":"function","name":"tokenOfOwnerByIndex","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"index","type":"uint256"}],"outputs":[{"name":"tokenId","type":"uint256"}]},
	{"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"uri","type":"string"}]},
	{"type":"function","name":"ownerOf","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"owner","type":"address"}]}
]`
